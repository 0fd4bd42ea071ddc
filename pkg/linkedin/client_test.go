package linkedin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/linkpost/pkg/apierr"
	"github.com/papercomputeco/linkpost/pkg/credentials"
	"github.com/papercomputeco/linkpost/pkg/publisher"
)

const testAuthor = "urn:li:person:abc"

// fakeLinkedIn records every request and serves the assets, upload and
// ugcPosts endpoints.
type fakeLinkedIn struct {
	mu sync.Mutex

	server   *httptest.Server
	requests []string
	posts    []map[string]any
	uploads  map[string]string

	failUpload   int
	postStatus   int
	postBody     string
	postHeaderID string
	registered   int
}

func newFakeLinkedIn() *fakeLinkedIn {
	f := &fakeLinkedIn{uploads: map[string]string{}, postStatus: http.StatusCreated}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /assets", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, "register")
		f.registered++
		n := f.registered
		f.mu.Unlock()

		Expect(r.URL.Query().Get("action")).To(Equal("registerUpload"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"value":{"asset":"urn:li:digitalmediaAsset:%d","uploadMechanism":{%q:{"uploadUrl":"%s/upload/%d"}}}}`,
			n, uploadMechanismKey, f.server.URL, n)
	})

	mux.HandleFunc("PUT /upload/{n}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests = append(f.requests, "upload")

		if fmt.Sprint(f.failUpload) == r.PathValue("n") {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("upload storage unavailable"))
			return
		}
		_, _ = io.Copy(io.Discard, r.Body)
		f.uploads[r.PathValue("n")] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("POST /ugcPosts", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests = append(f.requests, "post")

		Expect(r.Header.Get("Authorization")).To(Equal("Bearer tok-123"))
		Expect(r.Header.Get("X-Restli-Protocol-Version")).To(Equal("2.0.0"))
		Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))

		var body map[string]any
		Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
		f.posts = append(f.posts, body)

		if f.postHeaderID != "" {
			w.Header().Set(restliIDHeader, f.postHeaderID)
		}
		w.WriteHeader(f.postStatus)
		_, _ = w.Write([]byte(f.postBody))
	})

	f.server = httptest.NewServer(mux)
	return f
}

func (f *fakeLinkedIn) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

type recordingPublisher struct {
	events []*publisher.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e *publisher.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func writeMedia(dir, name string, data []byte) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, data, 0o600)).To(Succeed())
	return path
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

var _ = Describe("Client", func() {
	var (
		fake   *fakeLinkedIn
		client *Client
		pub    *recordingPublisher
		folder string
	)

	BeforeEach(func() {
		fake = newFakeLinkedIn()
		DeferCleanup(fake.server.Close)
		fake.postBody = `{"id":"urn:li:share:777"}`

		folder = GinkgoT().TempDir()
		pub = &recordingPublisher{}
		live := credentials.NewLive(credentials.Record{AccessToken: "tok-123", AuthorURN: testAuthor})
		client = NewClient(live, Options{
			APIBase:    fake.server.URL,
			FolderPath: folder,
			Publisher:  pub,
		})
	})

	Describe("PostText", func() {
		It("creates a public text post and returns the vendor id", func() {
			urn, err := client.PostText(context.Background(), testAuthor, "Hello network")
			Expect(err).NotTo(HaveOccurred())
			Expect(urn).To(Equal("urn:li:share:777"))
			Expect(PostURL(urn)).To(Equal("https://www.linkedin.com/feed/update/urn:li:share:777"))

			Expect(fake.posts).To(HaveLen(1))
			body := fake.posts[0]
			Expect(body).To(HaveKeyWithValue("author", testAuthor))
			Expect(body).To(HaveKeyWithValue("lifecycleState", "PUBLISHED"))
			Expect(body["visibility"]).To(HaveKeyWithValue(visibilityKey, "PUBLIC"))

			content := body["specificContent"].(map[string]any)[shareContentKey].(map[string]any)
			Expect(content).To(HaveKeyWithValue("shareMediaCategory", "NONE"))
			Expect(content["shareCommentary"]).To(HaveKeyWithValue("text", "Hello network"))
			Expect(content).NotTo(HaveKey("media"))

			Expect(pub.events).To(HaveLen(1))
			Expect(pub.events[0].Kind).To(Equal(publisher.KindText))
			Expect(pub.events[0].URL).To(Equal(PostURL(urn)))
		})

		It("falls back to the X-RestLi-Id header when the body has no id", func() {
			fake.postBody = ""
			fake.postHeaderID = "urn:li:ugcPost:555"

			urn, err := client.PostText(context.Background(), testAuthor, "Hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(urn).To(Equal("urn:li:ugcPost:555"))
		})

		It("rejects empty content before any network call", func() {
			_, err := client.PostText(context.Background(), testAuthor, "   ")
			Expect(errors.Is(err, apierr.ErrPrecondition)).To(BeTrue())
			Expect(fake.calls()).To(BeEmpty())
			Expect(pub.events).To(BeEmpty())
		})

		It("propagates the vendor status and body", func() {
			fake.postStatus = http.StatusForbidden
			fake.postBody = `{"message":"Not enough permissions"}`

			_, err := client.PostText(context.Background(), testAuthor, "Hi")
			var vendorErr *apierr.VendorError
			Expect(errors.As(err, &vendorErr)).To(BeTrue())
			Expect(vendorErr.StatusCode).To(Equal(http.StatusForbidden))
			Expect(vendorErr.Body).To(ContainSubstring("Not enough permissions"))
			Expect(pub.events).To(BeEmpty())
		})
	})

	Describe("PostImages", func() {
		It("registers and uploads each image before creating one post", func() {
			first := writeMedia(folder, "one.png", pngHeader)
			writeMedia(folder, "two.png", pngHeader)

			urn, err := client.PostImages(context.Background(), testAuthor, "Two pictures", []string{first, "two.png"})
			Expect(err).NotTo(HaveOccurred())
			Expect(urn).To(Equal("urn:li:share:777"))

			Expect(fake.calls()).To(Equal([]string{"register", "upload", "register", "upload", "post"}))
			Expect(fake.uploads).To(HaveKeyWithValue("1", "image/png"))

			content := fake.posts[0]["specificContent"].(map[string]any)[shareContentKey].(map[string]any)
			Expect(content).To(HaveKeyWithValue("shareMediaCategory", "IMAGE"))
			media := content["media"].([]any)
			Expect(media).To(HaveLen(2))
			Expect(media[0]).To(HaveKeyWithValue("status", "READY"))
			Expect(media[0]).To(HaveKeyWithValue("media", "urn:li:digitalmediaAsset:1"))
			Expect(media[1]).To(HaveKeyWithValue("media", "urn:li:digitalmediaAsset:2"))

			Expect(pub.events).To(HaveLen(1))
			Expect(pub.events[0].MediaCount).To(Equal(2))
		})

		It("fails with a precondition error before any network call when a file is missing", func() {
			writeMedia(folder, "one.png", pngHeader)

			_, err := client.PostImages(context.Background(), testAuthor, "Hi", []string{"one.png", "missing.png"})
			Expect(errors.Is(err, apierr.ErrPrecondition)).To(BeTrue())
			Expect(err).To(MatchError(ContainSubstring("file not found: " + filepath.Join(folder, "missing.png"))))
			Expect(fake.calls()).To(BeEmpty())
		})

		It("aborts without creating the post when a later upload fails", func() {
			writeMedia(folder, "one.png", pngHeader)
			writeMedia(folder, "two.png", pngHeader)
			fake.failUpload = 2

			_, err := client.PostImages(context.Background(), testAuthor, "Hi", []string{"one.png", "two.png"})

			var partial *PartialUploadError
			Expect(errors.As(err, &partial)).To(BeTrue())
			Expect(partial.Uploaded).To(Equal([]string{"urn:li:digitalmediaAsset:1"}))
			Expect(partial.Failed).To(Equal(filepath.Join(folder, "two.png")))

			var vendorErr *apierr.VendorError
			Expect(errors.As(err, &vendorErr)).To(BeTrue())
			Expect(vendorErr.Body).To(Equal("upload storage unavailable"))

			Expect(fake.calls()).NotTo(ContainElement("post"))
			Expect(pub.events).To(BeEmpty())
		})
	})

	Describe("PostVideo", func() {
		It("uploads the video and attaches title and description", func() {
			writeMedia(folder, "clip.mp4", []byte("not really a video"))

			_, err := client.PostVideo(context.Background(), testAuthor, "Watch this", "clip.mp4", VideoDetails{
				Title:       "Launch",
				Description: "Demo day",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(fake.calls()).To(Equal([]string{"register", "upload", "post"}))

			content := fake.posts[0]["specificContent"].(map[string]any)[shareContentKey].(map[string]any)
			Expect(content).To(HaveKeyWithValue("shareMediaCategory", "VIDEO"))
			item := content["media"].([]any)[0].(map[string]any)
			Expect(item["title"]).To(HaveKeyWithValue("text", "Launch"))
			Expect(item["description"]).To(HaveKeyWithValue("text", "Demo day"))
		})

		It("omits title and description when not given", func() {
			writeMedia(folder, "clip.mp4", []byte("x"))

			_, err := client.PostVideo(context.Background(), testAuthor, "Watch", "clip.mp4", VideoDetails{})
			Expect(err).NotTo(HaveOccurred())

			content := fake.posts[0]["specificContent"].(map[string]any)[shareContentKey].(map[string]any)
			item := content["media"].([]any)[0].(map[string]any)
			Expect(item).NotTo(HaveKey("title"))
			Expect(item).NotTo(HaveKey("description"))
		})

		It("rejects a missing video before any network call", func() {
			_, err := client.PostVideo(context.Background(), testAuthor, "Watch", "nope.mp4", VideoDetails{})
			Expect(errors.Is(err, apierr.ErrPrecondition)).To(BeTrue())
			Expect(fake.calls()).To(BeEmpty())
		})
	})
})

var _ = Describe("contentTypeFor", func() {
	It("prefers the file extension", func() {
		Expect(contentTypeFor("photo.PNG", nil)).To(Equal("image/png"))
		Expect(contentTypeFor("photo.jpg", nil)).To(Equal("image/jpeg"))
	})

	It("sniffs the content when the extension is unknown", func() {
		Expect(contentTypeFor("upload", pngHeader)).To(Equal("image/png"))
	})

	It("falls back to generic binary", func() {
		Expect(contentTypeFor("upload", nil)).To(Equal("application/octet-stream"))
	})
})
