package jwt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
)

const defaultWatchDebounce = 250 * time.Millisecond

// WatchDir recarga m cuando cambia algún PEM de dir (p.ej. `keys rotate` desde
// otro proceso). Los eventos se agrupan durante debounce. Bloquea hasta que ctx se cancela.
func WatchDir(ctx context.Context, m *Manager, dir string, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	log := m.log.With(logger.Op("watch"), logger.String("dir", dir))
	log.Info("watching key directory")

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// los temporales de atomicwrite no terminan en .pem
			if !strings.HasSuffix(ev.Name, ".pem") {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("key directory watch error", logger.Err(err))
		case <-timer.C:
			if err := m.Load(ctx); err != nil {
				continue
			}
			log.Info("keys reloaded after directory change", logger.ActiveKID(m.ActiveKID()))
		}
	}
}
