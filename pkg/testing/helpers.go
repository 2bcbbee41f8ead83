package testing

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gorilla/mux"
	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/kyma-project/gpu-pricing-collector/pkg/instance"
)

const (
	// Delta is used to compare floating point numbers using testify's InDelta.
	Delta = 1.0e-4
)

const timeout = 10 * time.Second

// Route is one handler of a test server. An empty Method matches every method.
type Route struct {
	Path    string
	Method  string
	Handler http.HandlerFunc
}

func StartTestServer(path string, testHandler http.HandlerFunc, g gomega.Gomega) *httptest.Server {
	return StartTestServerWithRoutes(g, Route{Path: path, Handler: testHandler})
}

// StartTestServerWithRoutes starts a local server with several handlers. Paths may use mux variables like {region}.
func StartTestServerWithRoutes(g gomega.Gomega, routes ...Route) *httptest.Server {
	testRouter := mux.NewRouter()
	testRouter.HandleFunc("/health", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	for _, route := range routes {
		r := testRouter.HandleFunc(route.Path, route.Handler)
		if route.Method != "" {
			r.Methods(route.Method)
		}
	}

	// Start a local test HTTP server
	srv := httptest.NewServer(testRouter)

	// Wait until test server is ready
	g.Eventually(func() int {
		// Ignoring error is ok as it goes for retry for non-200 cases
		healthResp, err := http.Get(fmt.Sprintf("%s/health", srv.URL))
		if err != nil {
			log.Printf("retrying :%v", err)
			return 0
		}
		defer healthResp.Body.Close()

		return healthResp.StatusCode
	}, timeout).Should(gomega.Equal(http.StatusOK))

	return srv
}

// JSONHandler answers every request with status and body as application/json.
func JSONHandler(status int, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}
}

type RowOpt func(*instance.Standardized)

// NewRow returns a complete row of provider with one T4 GPU and no prices.
func NewRow(provider instance.Provider, instanceType string, opts ...RowOpt) instance.Standardized {
	row := instance.Standardized{
		Provider:     provider,
		Region:       "region-1",
		InstanceType: instanceType,
		VCPUs:        4,
		MemoryGB:     16,
		GPUType:      "T4",
		GPUCount:     1,
	}

	for _, opt := range opts {
		opt(&row)
	}

	return row
}

func WithPrices(onDemand, spot *float64) RowOpt {
	return func(row *instance.Standardized) {
		row.OnDemandPerHour = onDemand
		row.SpotPerHour = spot
	}
}

func WithGPU(gpuType string, count float64) RowOpt {
	return func(row *instance.Standardized) {
		row.GPUType = gpuType
		row.GPUCount = count
	}
}

func WithRegion(region string) RowOpt {
	return func(row *instance.Standardized) {
		row.Region = region
	}
}

// PrometheusGatherAndReturn gathers c on a fresh registry and returns the family named metricName.
func PrometheusGatherAndReturn(c prometheus.Collector, metricName string) (*dto.MetricFamily, error) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(c); err != nil {
		return nil, err
	}

	mf, err := reg.Gather()
	if err != nil {
		return nil, err
	}

	for _, m := range mf {
		if m.GetName() == metricName {
			return m, nil
		}
	}

	return nil, fmt.Errorf("metric %s not found", metricName)
}

// PrometheusFindMetric returns the first metric of mf carrying every given label value.
func PrometheusFindMetric(mf *dto.MetricFamily, labels map[string]string) *dto.Metric {
	for _, m := range mf.GetMetric() {
		matches := 0

		for _, p := range m.GetLabel() {
			if want, ok := labels[p.GetName()]; ok && want == p.GetValue() {
				matches++
			}
		}

		if matches == len(labels) {
			return m
		}
	}

	return nil
}
