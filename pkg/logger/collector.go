package logger

import (
	"context"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Publisher ships digest batches, typically to a Kafka topic.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload any) error
}

type DigestConfig struct {
	Interval  time.Duration // flush period
	MaxUnique int           // flush early once this many distinct entries are held
	Topic     string
	Publisher Publisher
}

// DigestEntry is one deduplicated warn/error line.
type DigestEntry struct {
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	Count     int            `json:"count"`
	FirstSeen time.Time      `json:"first_seen"`
	LastSeen  time.Time      `json:"last_seen"`
}

// Digest collapses repeated warn/error entries and publishes them in batches.
type Digest struct {
	cfg     DigestConfig
	mu      sync.Mutex
	entries map[uint64]*DigestEntry
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	now     func() time.Time
}

func NewDigest(cfg DigestConfig) *Digest {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MaxUnique <= 0 {
		cfg.MaxUnique = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Digest{
		cfg:     cfg,
		entries: make(map[uint64]*DigestEntry),
		cancel:  cancel,
		now:     time.Now,
	}
	d.wg.Add(1)
	go d.loop(ctx)
	return d
}

func (d *Digest) Add(level, msg string, fields []Field) {
	kv := make(map[string]any, len(fields))
	for _, f := range fields {
		k, v := f.KeyValue()
		kv[k] = v
	}
	key := digestKey(level, msg, kv)
	now := d.now()

	d.mu.Lock()
	if e, ok := d.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		d.entries[key] = &DigestEntry{Level: level, Message: msg, Fields: kv, Count: 1, FirstSeen: now, LastSeen: now}
	}
	var batch []DigestEntry
	if len(d.entries) >= d.cfg.MaxUnique {
		batch = d.drainLocked()
	}
	d.mu.Unlock()

	if batch != nil {
		go d.publish(batch)
	}
}

// Pending returns the number of distinct entries waiting for a flush.
func (d *Digest) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

func (d *Digest) loop(ctx context.Context) {
	defer d.wg.Done()
	t := time.NewTicker(d.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			d.flush()
		case <-ctx.Done():
			d.flush()
			return
		}
	}
}

func (d *Digest) flush() {
	d.mu.Lock()
	batch := d.drainLocked()
	d.mu.Unlock()
	if len(batch) > 0 {
		d.publish(batch)
	}
}

func (d *Digest) drainLocked() []DigestEntry {
	if len(d.entries) == 0 {
		return nil
	}
	out := make([]DigestEntry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, *e)
	}
	d.entries = make(map[uint64]*DigestEntry)
	sort.Slice(out, func(i, j int) bool { return out[i].FirstSeen.Before(out[j].FirstSeen) })
	return out
}

func (d *Digest) publish(batch []DigestEntry) {
	if d.cfg.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// best effort: the logger cannot log its own delivery failures
	_ = d.cfg.Publisher.PublishMessage(ctx, d.cfg.Topic, batch)
}

// Close stops the flush loop after a final flush.
func (d *Digest) Close() {
	d.cancel()
	d.wg.Wait()
}

func digestKey(level, msg string, kv map[string]any) uint64 {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := fnv.New64a()
	h.Write([]byte(level))
	h.Write([]byte{0})
	h.Write([]byte(msg))
	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(toString(kv[k])))
	}
	return h.Sum64()
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return "?"
	}
}
