package publisher

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingPublisher struct {
	calls int
}

func (f *failingPublisher) Publish(context.Context, *Event) error {
	f.calls++
	return errors.New("broker unavailable")
}

func (f *failingPublisher) Close() error { return nil }

var _ = Describe("Announce", func() {
	It("logs publish failures instead of returning them", func() {
		core, logs := observer.New(zap.WarnLevel)
		pub := &failingPublisher{}
		event, err := NewEvent("urn:li:share:9", "", KindText, 0)
		Expect(err).NotTo(HaveOccurred())

		Announce(context.Background(), pub, zap.New(core), event)

		Expect(pub.calls).To(Equal(1))
		Expect(logs.FilterMessage("failed to publish post event").Len()).To(Equal(1))
	})

	It("tolerates a nil publisher", func() {
		event, err := NewEvent("urn:li:share:9", "", KindText, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(func() { Announce(context.Background(), nil, nil, event) }).NotTo(Panic())
	})
})
