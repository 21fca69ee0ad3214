package metrics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/utils/fileutil"
	"github.com/livp123/firesense/internal/utils/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"
)

const jobName = "firesense"

// Exporter serves /metrics on its own port and periodically writes a
// node_exporter textfile or pushes to a Pushgateway.
// Exporter 在独立端口提供 /metrics，并定期写入 textfile 或推送到 Pushgateway。
type Exporter struct {
	cfg      config.MetricsConfig
	gatherer prometheus.Gatherer
	server   *http.Server

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	tick    time.Duration
	pusher  func() error
	running bool
}

// NewExporter creates an exporter over the default registry.
// NewExporter 基于默认注册表创建导出器。
func NewExporter(cfg config.MetricsConfig) *Exporter {
	e := &Exporter{
		cfg:      cfg,
		gatherer: prometheus.DefaultGatherer,
		tick:     2 * time.Second,
	}
	e.pusher = e.push
	return e
}

// Handler returns the /metrics handler for embedding in another router.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Start launches the optional server and the export loop.
// Start 启动可选的服务器和导出循环。
func (e *Exporter) Start(ctx context.Context) error {
	log := logger.Get(ctx)
	if !e.cfg.Enabled {
		log.Infof("[METRICS] Metrics disabled via config.")
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}

	if e.cfg.ServerEnabled && e.cfg.Port > 0 {
		addr := fmt.Sprintf(":%d", e.cfg.Port)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{}))
		e.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			log.Infof("[METRICS] Metrics HTTP server listening on %s", addr)
			if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("[ERROR] Metrics server error: %v", err)
			}
		}()
	}

	if e.cfg.TextfileEnabled || e.cfg.PushEnabled {
		loopCtx, cancel := context.WithCancel(ctx)
		e.cancel = cancel
		e.done = make(chan struct{})
		go e.loop(loopCtx)
	}
	e.running = true
	return nil
}

func (e *Exporter) loop(ctx context.Context) {
	defer close(e.done)
	log := logger.Get(ctx)
	pushInterval := config.ParseDuration(e.cfg.PushInterval, time.Minute)

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()
	lastPush := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if e.cfg.TextfileEnabled && e.cfg.TextfilePath != "" {
			if err := e.WriteTextfile(e.cfg.TextfilePath); err != nil {
				log.Warnf("[WARN]  Failed to write metrics textfile: %v", err)
			}
		}
		if e.cfg.PushEnabled && time.Since(lastPush) >= pushInterval {
			if err := e.pusher(); err != nil {
				log.Warnf("[WARN]  Could not push to Pushgateway: %v", err)
			}
			lastPush = time.Now()
		}
	}
}

// WriteTextfile renders all metrics in the text exposition format and
// replaces path atomically.
// WriteTextfile 以文本格式渲染全部指标并原子替换 path。
func (e *Exporter) WriteTextfile(path string) error {
	mfs, err := e.gatherer.Gather()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return fileutil.AtomicWriteFile(path, buf.Bytes(), 0644)
}

func (e *Exporter) push() error {
	if e.cfg.PushGatewayAddr == "" {
		return nil
	}
	return push.New(e.cfg.PushGatewayAddr, jobName).Gatherer(e.gatherer).Push()
}

// Stop shuts the server and loop down.
// Stop 关闭服务器和循环。
func (e *Exporter) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return nil
	}
	e.running = false

	if e.cancel != nil {
		e.cancel()
		<-e.done
		e.cancel = nil
	}
	if e.server != nil {
		err := e.server.Shutdown(ctx)
		e.server = nil
		return err
	}
	return nil
}
