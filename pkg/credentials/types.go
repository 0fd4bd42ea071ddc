package credentials

import "strings"

// Keys of the credential file that the server and the setup flow care about.
const (
	KeyClientID     = "CLIENT_ID"
	KeyClientSecret = "CLIENT_SECRET"
	KeyRedirectURI  = "REDIRECT_URI"
	KeyAccessToken  = "ACCESS_TOKEN"
	KeyAuthorURN    = "AUTHOR_URN"
	KeyFolderPath   = "FOLDER_PATH"
	KeyBraveAPIKey  = "BRAVE_API_KEY"
	KeyOpenAIAPIKey = "OPENAI_API_KEY"
)

// requiredKeys must all be present before any publishing operation.
var requiredKeys = []string{
	KeyClientID,
	KeyClientSecret,
	KeyRedirectURI,
	KeyAccessToken,
	KeyAuthorURN,
}

// Record is the LinkedIn credential set. ClientID, ClientSecret and
// RedirectURI are static configuration; AccessToken and AuthorURN are
// produced by the OAuth flow and replaced in place after each exchange.
type Record struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AccessToken  string
	AuthorURN    string
}

func recordFromValues(values map[string]string) Record {
	get := func(key string) string { return strings.TrimSpace(values[key]) }
	return Record{
		ClientID:     get(KeyClientID),
		ClientSecret: get(KeyClientSecret),
		RedirectURI:  get(KeyRedirectURI),
		AccessToken:  get(KeyAccessToken),
		AuthorURN:    get(KeyAuthorURN),
	}
}

// Missing returns the required keys that are empty, in file-documentation order.
func (r Record) Missing() []string {
	present := map[string]bool{
		KeyClientID:     r.ClientID != "",
		KeyClientSecret: r.ClientSecret != "",
		KeyRedirectURI:  r.RedirectURI != "",
		KeyAccessToken:  r.AccessToken != "",
		KeyAuthorURN:    r.AuthorURN != "",
	}
	var missing []string
	for _, key := range requiredKeys {
		if !present[key] {
			missing = append(missing, key)
		}
	}
	return missing
}
