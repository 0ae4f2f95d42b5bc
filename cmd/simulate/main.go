package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// The simulator hammers one (doctor, date) queue partition with concurrent
// booking requests and then checks the invariant the ledger promises: each
// lane's numbers are exactly 1..N, no duplicates, no gaps.

type SimConfig struct {
	APIBaseURL     string
	DoctorID       string
	Date           string
	Workers        int
	Bookings       int
	EmergencyRatio float64
	AdminID        string
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[len(latencies)*50/100]
	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]
	return
}

func main() {
	log.SetFlags(log.LstdFlags)

	cfg := SimConfig{
		APIBaseURL:     getEnv("SIM_API_URL", "http://127.0.0.1:8080"),
		DoctorID:       os.Getenv("SIM_DOCTOR_ID"),
		Date:           getEnv("SIM_DATE", time.Now().AddDate(0, 0, 7).Format("2006-01-02")),
		Workers:        getEnvInt("SIM_WORKERS", 20),
		Bookings:       getEnvInt("SIM_BOOKINGS", 200),
		EmergencyRatio: getEnvFloat("SIM_EMERGENCY_RATIO", 0.1),
		AdminID:        getEnv("SIM_ADMIN_ID", uuid.NewString()),
	}
	if cfg.DoctorID == "" {
		log.Fatal("SIM_DOCTOR_ID is required (run cmd/seed and pick one)")
	}

	log.Printf("simulating %d bookings with %d workers against doctor=%s date=%s",
		cfg.Bookings, cfg.Workers, cfg.DoctorID, cfg.Date)

	client := &http.Client{Timeout: 10 * time.Second}
	metrics := &OperationMetrics{}

	jobs := make(chan bool, cfg.Bookings)
	for i := 0; i < cfg.Bookings; i++ {
		jobs <- rand.Float64() < cfg.EmergencyRatio
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for emergency := range jobs {
				bookOne(client, cfg, emergency, metrics)
			}
		}()
	}
	wg.Wait()

	avg, min, max, p50, p95 := metrics.Stats()
	log.Printf("bookings: total=%d success=%d conflict=%d error=%d",
		metrics.Total, metrics.Success, metrics.Conflict, metrics.Error)
	log.Printf("latency: avg=%s min=%s max=%s p50=%s p95=%s", avg, min, max, p50, p95)

	if err := verifyLanes(client, cfg); err != nil {
		log.Fatalf("INVARIANT VIOLATED: %v", err)
	}
	log.Println("lane invariant holds: gapless, duplicate-free numbering in both lanes")
}

func bookOne(client *http.Client, cfg SimConfig, emergency bool, metrics *OperationMetrics) {
	payload := map[string]any{
		"patient_id":       uuid.NewString(),
		"doctor_id":        cfg.DoctorID,
		"date":             cfg.Date,
		"appointment_type": "consultation",
		"reason_for_visit": "load test visit",
		"is_emergency":     emergency,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, cfg.APIBaseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		metrics.Record(0, false, false)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", cfg.AdminID)
	req.Header.Set("X-User-Role", "admin")

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		metrics.Record(latency, false, false)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusCreated:
		metrics.Record(latency, true, false)
	case resp.StatusCode == http.StatusConflict:
		metrics.Record(latency, false, true)
	default:
		metrics.Record(latency, false, false)
	}
}

func verifyLanes(client *http.Client, cfg SimConfig) error {
	req, err := http.NewRequest(http.MethodGet,
		fmt.Sprintf("%s/doctors/%s/queue?date=%s", cfg.APIBaseURL, cfg.DoctorID, cfg.Date), nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-User-ID", cfg.AdminID)
	req.Header.Set("X-User-Role", "admin")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("day queue returned %d", resp.StatusCode)
	}

	var day struct {
		Entries []struct {
			QueueNumber string `json:"queue_number"`
			Lane        string `json:"lane"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&day); err != nil {
		return err
	}

	lanes := map[string][]int{}
	for _, e := range day.Entries {
		n, err := strconv.Atoi(strings.TrimPrefix(e.QueueNumber, "E"))
		if err != nil {
			return fmt.Errorf("bad queue number %q", e.QueueNumber)
		}
		lanes[e.Lane] = append(lanes[e.Lane], n)
	}

	for lane, numbers := range lanes {
		sort.Ints(numbers)
		for i, n := range numbers {
			if n != i+1 {
				return fmt.Errorf("lane %s: want %d at position %d, got %d", lane, i+1, i, n)
			}
		}
		log.Printf("lane %s: %d entries, 1..%d", lane, len(numbers), len(numbers))
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
