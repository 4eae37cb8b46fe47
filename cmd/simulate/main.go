// simulate hammers a running api-server with concurrent registrations,
// bookings and cancellations, and reports how many attempts succeeded,
// were rejected as conflicts, or failed outright. Conflicts are the
// interesting number: with the per-patient lock in place, concurrent
// double-bookings must surface as 409s, never as two created rows.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hackgods/clinic-agenda/internal/agenda"
	"github.com/hackgods/clinic-agenda/internal/nationalid"
)

type simConfig struct {
	baseURL  string
	duration time.Duration
	workers  int
	patients int
}

type patientPool struct {
	mu  sync.RWMutex
	ids []string
}

func (p *patientPool) Add(nationalID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, nationalID)
}

func (p *patientPool) Random() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.ids) == 0 {
		return "", false
	}
	return p.ids[rand.Intn(len(p.ids))], true
}

type opMetrics struct {
	total    int64
	success  int64
	conflict int64
	failed   int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *opMetrics) record(latency time.Duration, status int) {
	atomic.AddInt64(&m.total, 1)
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&m.success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.conflict, 1)
	default:
		atomic.AddInt64(&m.failed, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *opMetrics) report(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fmt.Printf("%-10s total=%d success=%d conflict=%d failed=%d",
		name, m.total, m.success, m.conflict, m.failed)

	if len(m.latencies) > 0 {
		sort.Slice(m.latencies, func(i, j int) bool { return m.latencies[i] < m.latencies[j] })
		p50 := m.latencies[len(m.latencies)/2]
		p95 := m.latencies[len(m.latencies)*95/100]
		fmt.Printf(" p50=%s p95=%s", p50, p95)
	}
	fmt.Println()
}

func main() {
	log.SetFlags(log.LstdFlags)

	cfg := simConfig{}
	flag.StringVar(&cfg.baseURL, "url", "http://127.0.0.1:8080", "api-server base URL")
	flag.DurationVar(&cfg.duration, "duration", 30*time.Second, "how long to run")
	flag.IntVar(&cfg.workers, "workers", 8, "concurrent workers")
	flag.IntVar(&cfg.patients, "patients", 50, "patients registered before the run")
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	client := &http.Client{Timeout: 10 * time.Second}
	pool := &patientPool{}

	log.Printf("registering %d patients", cfg.patients)
	for i := 0; i < cfg.patients; i++ {
		id := nationalid.Generate()
		status, err := post(client, cfg.baseURL+"/patients", map[string]string{
			"national_id": id,
			"full_name":   gofakeit.Name(),
			"birth_date":  gofakeit.DateRange(
				time.Now().AddDate(-80, 0, 0),
				time.Now().AddDate(-20, 0, 0),
			).Format("2006-01-02"),
		})
		if err != nil || status != http.StatusCreated {
			log.Printf("register failed: status=%d err=%v", status, err)
			continue
		}
		pool.Add(id)
	}

	schedule := &opMetrics{}
	cancel := &opMetrics{}
	list := &opMetrics{}

	log.Printf("running %d workers for %s", cfg.workers, cfg.duration)
	deadline := time.Now().Add(cfg.duration)

	var wg sync.WaitGroup
	for w := 0; w < cfg.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				runOp(client, cfg.baseURL, pool, schedule, cancel, list)
			}
		}()
	}
	wg.Wait()

	fmt.Println("---- results ----")
	schedule.report("schedule")
	cancel.report("cancel")
	list.report("list")
}

func runOp(client *http.Client, baseURL string, pool *patientPool, schedule, cancel, list *opMetrics) {
	id, ok := pool.Random()
	if !ok {
		return
	}

	date := agenda.DateOf(time.Now()).AddDate(0, 0, rand.Intn(20)+1)
	startMin := agenda.OpeningMinute + rand.Intn(8)*agenda.SlotGranularity
	endMin := startMin + agenda.SlotGranularity

	switch rand.Intn(10) {
	case 0, 1, 2, 3, 4, 5:
		// Most traffic tries to book; many attempts hit the same
		// patient concurrently, which is the point.
		start := time.Now()
		status, err := post(client, baseURL+"/appointments", map[string]string{
			"national_id": id,
			"date":        date.Format("2006-01-02"),
			"start_time":  agenda.FormatMinutes(startMin),
			"end_time":    agenda.FormatMinutes(endMin),
		})
		if err != nil {
			status = 0
		}
		schedule.record(time.Since(start), status)

	case 6, 7:
		start := time.Now()
		status, err := post(client, baseURL+"/appointments/cancel", map[string]string{
			"national_id": id,
			"date":        date.Format("2006-01-02"),
			"start_time":  agenda.FormatMinutes(startMin),
		})
		if err != nil {
			status = 0
		}
		cancel.record(time.Since(start), status)

	default:
		start := time.Now()
		resp, err := client.Get(baseURL + "/appointments")
		status := 0
		if err == nil {
			status = resp.StatusCode
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		list.record(time.Since(start), status)
	}
}

func post(client *http.Client, url string, body map[string]string) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
