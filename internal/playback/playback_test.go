package playback_test

import (
	"io"
	"log/slog"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/serialgrid/internal/playback"
)

var _ = Describe("Controller", func() {
	var ctl *playback.Controller

	BeforeEach(func() {
		ctl = playback.NewController(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	It("starts playing", func() {
		Expect(ctl.State()).To(Equal(playback.Playing))
	})

	It("pauses and resumes on toggle", func() {
		Expect(ctl.Apply(playback.ActionToggle)).To(Equal(playback.Paused))
		Expect(ctl.Apply(playback.ActionToggle)).To(Equal(playback.Playing))
		Expect(ctl.Apply(playback.ActionToggle)).To(Equal(playback.Paused))
	})

	It("stops on quit from playing", func() {
		Expect(ctl.Apply(playback.ActionQuit)).To(Equal(playback.Stopped))
	})

	It("stops on quit from paused", func() {
		ctl.Apply(playback.ActionToggle)
		Expect(ctl.Apply(playback.ActionQuit)).To(Equal(playback.Stopped))
	})

	It("treats stopped as terminal", func() {
		ctl.Apply(playback.ActionQuit)
		Expect(ctl.Apply(playback.ActionToggle)).To(Equal(playback.Stopped))
		Expect(ctl.State()).To(Equal(playback.Stopped))
	})

	It("ignores the none action", func() {
		Expect(ctl.Apply(playback.ActionNone)).To(Equal(playback.Playing))
	})

	It("accepts a nil logger", func() {
		Expect(playback.NewController(nil).State()).To(Equal(playback.Playing))
	})

	It("is safe under concurrent toggles", func() {
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				ctl.Apply(playback.ActionToggle)
			}()
		}
		wg.Wait()
		// an even number of toggles lands back on playing
		Expect(ctl.State()).To(Equal(playback.Playing))
	})
})

var _ = DescribeTable("KeyAction",
	func(key string, want playback.Action) {
		Expect(playback.KeyAction(key)).To(Equal(want))
	},
	Entry("p toggles", "p", playback.ActionToggle),
	Entry("c toggles", "c", playback.ActionToggle),
	Entry("s toggles", "s", playback.ActionToggle),
	Entry("q quits", "q", playback.ActionQuit),
	Entry("Q quits", "Q", playback.ActionQuit),
	Entry("esc quits", "esc", playback.ActionQuit),
	Entry("escape quits", "escape", playback.ActionQuit),
	Entry("P is unbound", "P", playback.ActionNone),
	Entry("space is unbound", " ", playback.ActionNone),
)

var _ = Describe("State", func() {
	It("has readable names", func() {
		Expect(playback.Playing.String()).To(Equal("playing"))
		Expect(playback.Paused.String()).To(Equal("paused"))
		Expect(playback.Stopped.String()).To(Equal("stopped"))
	})
})
