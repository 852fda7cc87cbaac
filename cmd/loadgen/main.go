// Command loadgen drives synthetic HTTP traffic at a running server:
// put-all (create+delete churn), get-all (uncached misses), get-popular
// (hot-key reads), or get-put (80/15/5 read/write/delete mix over a hot
// key set).
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const popularKeyCount = 50

var (
	totalRequests  atomic.Int64
	totalFailed    atomic.Int64
	totalLatencyUS atomic.Int64
)

type client struct {
	base string
	http *http.Client
}

func (c *client) post(key, value string) bool {
	body, _ := json.Marshal(map[string]string{"key": key, "value": value})
	resp, err := c.http.Post(c.base+"/key", "application/json", bytes.NewReader(body))
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusCreated
}

func (c *client) get(key string) bool {
	resp, err := c.http.Get(c.base + "/key?key=" + key)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *client) delete(key string) bool {
	req, err := http.NewRequest(http.MethodDelete, c.base+"/key/"+key, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func randomString(r *rand.Rand, length int) string {
	const chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	b := make([]byte, length)
	for i := range b {
		b[i] = chars[r.Intn(len(chars))]
	}
	return string(b)
}

func worker(ctx context.Context, c *client, workload string, popular []string, seed int64) error {
	r := rand.New(rand.NewSource(seed))

	for ctx.Err() == nil {
		start := time.Now()
		var ok bool

		switch workload {
		case "put-all":
			key := "key_" + randomString(r, 12)
			if c.post(key, randomString(r, 32)) {
				ok = c.delete(key)
			}
		case "get-all":
			ok = c.get("miss_" + randomString(r, 12))
		case "get-popular":
			ok = c.get(popular[r.Intn(len(popular))])
		case "get-put":
			switch m := r.Intn(100); {
			case m < 80:
				ok = c.get(popular[r.Intn(len(popular))])
			case m < 95:
				ok = c.post("mix_"+randomString(r, 12), randomString(r, 32))
			default:
				ok = c.delete(popular[r.Intn(len(popular))])
			}
		default:
			return fmt.Errorf("unknown workload %q (use put-all, get-all, get-popular or get-put)", workload)
		}

		if ok {
			totalRequests.Add(1)
			totalLatencyUS.Add(time.Since(start).Microseconds())
		} else {
			totalFailed.Add(1)
		}
	}
	return nil
}

func prePopulate(c *client, r *rand.Rand) []string {
	log.Println("pre-populating popular keys...")
	keys := make([]string, 0, popularKeyCount)
	for i := 0; i < popularKeyCount; i++ {
		key := fmt.Sprintf("popular_%d", i)
		if c.post(key, randomString(r, 48)) {
			keys = append(keys, key)
		} else {
			log.Printf("failed to pre-populate %s", key)
		}
	}
	return keys
}

func main() {
	var (
		base     = flag.String("url", "http://127.0.0.1:8080", "server base URL")
		threads  = flag.Int("threads", 8, "concurrent client workers")
		duration = flag.Duration("duration", 30*time.Second, "test duration")
		workload = flag.String("workload", "get-put", "put-all | get-all | get-popular | get-put")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	)
	flag.Parse()

	c := &client{base: *base, http: &http.Client{Timeout: 2 * time.Second}}

	var popular []string
	if *workload == "get-popular" || *workload == "get-put" {
		popular = prePopulate(c, rand.New(rand.NewSource(*seed)))
		if len(popular) == 0 {
			log.Fatal("no popular keys could be created; is the server up?")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < *threads; i++ {
		i := i
		g.Go(func() error {
			return worker(ctx, c, *workload, popular, *seed+int64(i)*9973)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	elapsed := time.Since(start)

	reqs := totalRequests.Load()
	failed := totalFailed.Load()
	avgUS := int64(0)
	if reqs > 0 {
		avgUS = totalLatencyUS.Load() / reqs
	}

	fmt.Printf("workload=%s threads=%d dur=%v\n", *workload, *threads, elapsed.Round(time.Millisecond))
	fmt.Printf("requests=%d (%.0f req/s)  failed=%d\n", reqs, float64(reqs)/elapsed.Seconds(), failed)
	fmt.Printf("avg latency=%dus\n", avgUS)
}
