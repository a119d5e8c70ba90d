package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var dedupeHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "symptom_dedupe_hits_total",
	Help: "Submissions answered from the dedupe window without a model call.",
})

const dedupeMaxEntries = 1024

// dedupeWindow remembers recent analyses by symptom fingerprint so a repeated
// submission inside the window does not pay for a second model call.
type dedupeWindow struct {
	cache *expirable.LRU[string, json.RawMessage]
}

func newDedupeWindow(ttl time.Duration) *dedupeWindow {
	return &dedupeWindow{
		cache: expirable.NewLRU[string, json.RawMessage](dedupeMaxEntries, nil, ttl),
	}
}

func (d *dedupeWindow) Get(symptoms string) (json.RawMessage, bool) {
	v, ok := d.cache.Get(fingerprint(symptoms))
	if ok {
		dedupeHitsTotal.Inc()
	}
	return v, ok
}

func (d *dedupeWindow) Add(symptoms string, analysis json.RawMessage) {
	d.cache.Add(fingerprint(symptoms), analysis)
}

// fingerprint ignores case and surrounding or repeated whitespace.
func fingerprint(symptoms string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(symptoms)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
