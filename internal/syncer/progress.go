package syncer

import (
	"os"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progressRenderer wraps an mpb bar so callers need no nil checks when
// progress output is disabled.
type progressRenderer struct {
	container *mpb.Progress
	bar       *mpb.Bar
	enabled   bool
}

func newProgressRenderer(enabled bool, total int) *progressRenderer {
	if !enabled || total == 0 {
		return &progressRenderer{}
	}

	container := mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithRefreshRate(120*time.Millisecond),
	)
	bar := container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("downloading ", decor.WC{C: decor.DindentRight}),
			decor.CountersNoUnit("(%d/%d)", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.NewPercentage("%d", decor.WCSyncSpace),
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO, decor.WCSyncWidth), "done"),
		),
	)

	return &progressRenderer{container: container, bar: bar, enabled: true}
}

func (p *progressRenderer) Increment() {
	if p.enabled {
		p.bar.Increment()
	}
}

func (p *progressRenderer) Wait() {
	if p.enabled {
		p.container.Wait()
	}
}

// Shutdown tears the bar down without waiting for it to complete. Wait would
// block forever on a bar that is short of its total.
func (p *progressRenderer) Shutdown() {
	if p.enabled {
		p.container.Shutdown()
	}
}
