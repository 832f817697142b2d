package metrics

import (
	"time"

	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
	"github.com/prometheus/client_golang/prometheus"
)

// KeyLister es lo que el collector necesita del key manager.
type KeyLister interface {
	List() []jwtx.KeyInfo
}

// KeySetCollector expone el estado del key set en cada scrape.
type KeySetCollector struct {
	keys KeyLister
	now  func() time.Time

	keysDesc      *prometheus.Desc
	activeDesc    *prometheus.Desc
	activeAgeDesc *prometheus.Desc
}

func NewKeySetCollector(keys KeyLister) *KeySetCollector {
	return &KeySetCollector{
		keys:          keys,
		now:           time.Now,
		keysDesc:      prometheus.NewDesc("signing_keys", "Claves cargadas por capacidad", []string{"can_sign"}, nil),
		activeDesc:    prometheus.NewDesc("signing_key_active", "1 si hay clave activa", []string{"kid"}, nil),
		activeAgeDesc: prometheus.NewDesc("signing_key_active_age_seconds", "Antigüedad de la clave activa", nil, nil),
	}
}

func (c *KeySetCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keysDesc
	ch <- c.activeDesc
	ch <- c.activeAgeDesc
}

func (c *KeySetCollector) Collect(ch chan<- prometheus.Metric) {
	var signing, verifyOnly int
	for _, k := range c.keys.List() {
		if k.CanSign {
			signing++
		} else {
			verifyOnly++
		}
		if k.Active {
			ch <- prometheus.MustNewConstMetric(c.activeDesc, prometheus.GaugeValue, 1, k.KID)
			ch <- prometheus.MustNewConstMetric(c.activeAgeDesc, prometheus.GaugeValue, c.now().Sub(k.CreatedAt).Seconds())
		}
	}
	ch <- prometheus.MustNewConstMetric(c.keysDesc, prometheus.GaugeValue, float64(signing), "true")
	ch <- prometheus.MustNewConstMetric(c.keysDesc, prometheus.GaugeValue, float64(verifyOnly), "false")
}
