package credentials_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/linkpost/pkg/credentials"
)

var _ = Describe("Live", func() {
	var (
		envPath string
		mgr     *credentials.Manager
	)

	BeforeEach(func() {
		envPath = filepath.Join(GinkgoT().TempDir(), ".env")
		Expect(os.WriteFile(envPath, []byte(fullEnv), 0o600)).To(Succeed())

		var err error
		mgr, err = credentials.NewManager(envPath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("serves the stored token as a bearer oauth2 token", func() {
		rec, err := mgr.Load()
		Expect(err).NotTo(HaveOccurred())

		live := credentials.NewLive(*rec)
		tok, err := live.Token()
		Expect(err).NotTo(HaveOccurred())
		Expect(tok.AccessToken).To(Equal("old-token"))
		Expect(tok.Type()).To(Equal("Bearer"))
		Expect(live.AuthorURN()).To(Equal("urn:li:person:old"))
	})

	It("errors when no token is present", func() {
		live := credentials.NewLive(credentials.Record{})
		_, err := live.Token()
		Expect(err).To(HaveOccurred())
	})

	It("keeps the current record when the file becomes invalid", func() {
		rec, err := mgr.Load()
		Expect(err).NotTo(HaveOccurred())
		live := credentials.NewLive(*rec)

		Expect(os.WriteFile(envPath, []byte("CLIENT_ID=only\n"), 0o600)).To(Succeed())

		changed, err := live.Reload(mgr)
		Expect(err).To(HaveOccurred())
		Expect(changed).To(BeFalse())
		Expect(live.Snapshot().AccessToken).To(Equal("old-token"))
	})

	It("picks up a token written while watching", func() {
		rec, err := mgr.Load()
		Expect(err).NotTo(HaveOccurred())
		live := credentials.NewLive(*rec)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- live.Watch(ctx, mgr, nil)
		}()
		DeferCleanup(func() {
			cancel()
			Eventually(done, 2*time.Second).Should(Receive(BeNil()))
		})

		// Give the watcher time to register before writing.
		time.Sleep(100 * time.Millisecond)
		Expect(mgr.Update("fresh-token", "urn:li:person:fresh")).To(Succeed())

		Eventually(func() string {
			return live.Snapshot().AccessToken
		}, 3*time.Second, 20*time.Millisecond).Should(Equal("fresh-token"))
		Expect(live.AuthorURN()).To(Equal("urn:li:person:fresh"))
	})
})
