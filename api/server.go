package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/mining-pool/blockminer/config"
	"github.com/mining-pool/blockminer/jobs"
	"github.com/mining-pool/blockminer/storage"
	"github.com/mining-pool/blockminer/types"
	"github.com/pkg/errors"
)

var log = logging.Logger("api")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JobSource is the view of the job manager the API reads. *jobs.JobManager satisfies it.
type JobSource interface {
	CurrentJob() *jobs.Job
	LatestResult() *types.BlockResult
	Stats() *jobs.Stats
}

// BlockSource lists recorded blocks. *storage.DB satisfies it.
type BlockSource interface {
	GetBlockRecords(ctx context.Context) ([]*storage.BlockRecord, error)
	GetPoolStats(ctx context.Context) (*storage.PoolStats, error)
}

type Server struct {
	*mux.Router

	apiConf *config.APIOptions
	jobs    JobSource
	storage BlockSource

	availablePaths []string
	config         map[string]interface{}
}

// NewAPIServer creates a read only JSON status server. blocks may be nil when no storage is
// configured.
func NewAPIServer(options *config.Options, jobSource JobSource, blocks BlockSource) *Server {
	s := &Server{
		Router: mux.NewRouter(),

		apiConf: options.API,
		jobs:    jobSource,
		storage: blocks,

		availablePaths: make([]string, 0),
		config:         make(map[string]interface{}),
	}

	s.ConvertConf(options)

	s.RegisterFunc("/", s.indexFunc)

	s.RegisterFunc("/config", s.configIndexFunc)
	s.RegisterFunc("/config/{key}", s.configFunc)

	s.RegisterFunc("/job", s.jobFunc)
	s.RegisterFunc("/block/latest", s.latestBlockFunc)
	s.RegisterFunc("/stats", s.statsFunc)
	s.RegisterFunc("/blocks", s.blocksFunc)

	s.Use(mux.CORSMethodMiddleware(s.Router))

	return s
}

// ConvertConf exposes the option sections that carry no secrets.
func (s *Server) ConvertConf(options *config.Options) {
	s.config["coin"] = options.Coin
	s.config["algorithm"] = options.Algorithm
	s.config["mining"] = options.Mining
	s.config["poolAddress"] = options.PoolAddress
	if options.API != nil {
		s.config["api"] = options.API
	}
}

func (s *Server) RegisterFunc(path string, fn func(http.ResponseWriter, *http.Request)) {
	s.HandleFunc(path, fn).Methods(http.MethodGet, http.MethodOptions)
	s.availablePaths = append(s.availablePaths, path)
}

// Serve listens until ctx is done, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	if s.apiConf == nil {
		return errors.New("no api options configured")
	}

	srv := &http.Server{
		Addr:              s.apiConf.Addr(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.apiConf.TLS != nil {
			tlsConfig, err := s.apiConf.TLS.ToTLSConfig()
			if err != nil {
				errCh <- err
				return
			}
			srv.TLSConfig = tlsConfig

			log.Warn("API server listening on https://", srv.Addr)
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}

		log.Warn("API server listening on http://", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) writeJSON(writer http.ResponseWriter, status int, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Error(err)
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_, _ = writer.Write(raw)
}

func (s *Server) writeError(writer http.ResponseWriter, status int, msg string) {
	s.writeJSON(writer, status, map[string]string{"error": msg})
}

func (s *Server) indexFunc(writer http.ResponseWriter, _ *http.Request) {
	s.writeJSON(writer, http.StatusOK, s.availablePaths)
}

func (s *Server) configIndexFunc(writer http.ResponseWriter, _ *http.Request) {
	keys := make([]string, 0, len(s.config))
	for k := range s.config {
		keys = append(keys, "/config/"+k)
	}
	sort.Strings(keys)

	s.writeJSON(writer, http.StatusOK, keys)
}

func (s *Server) configFunc(writer http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	v, ok := s.config[key]
	if !ok {
		s.writeError(writer, http.StatusNotFound, "no config section "+key)
		return
	}

	s.writeJSON(writer, http.StatusOK, v)
}

func (s *Server) jobFunc(writer http.ResponseWriter, _ *http.Request) {
	job := s.jobs.CurrentJob()
	if job == nil {
		s.writeError(writer, http.StatusNotFound, "no job")
		return
	}

	s.writeJSON(writer, http.StatusOK, job.GetJobParams(false))
}

func (s *Server) latestBlockFunc(writer http.ResponseWriter, _ *http.Request) {
	result := s.jobs.LatestResult()
	if result == nil {
		s.writeError(writer, http.StatusNotFound, "no block mined yet")
		return
	}

	s.writeJSON(writer, http.StatusOK, result)
}

func (s *Server) statsFunc(writer http.ResponseWriter, r *http.Request) {
	resp := struct {
		*jobs.Stats
		Pool *storage.PoolStats `json:"pool,omitempty"`
	}{
		Stats: s.jobs.Stats(),
	}

	if s.storage != nil {
		pool, err := s.storage.GetPoolStats(r.Context())
		if err != nil {
			log.Error("failed to read pool stats: ", err)
			s.writeError(writer, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Pool = pool
	}

	s.writeJSON(writer, http.StatusOK, resp)
}

func (s *Server) blocksFunc(writer http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.writeError(writer, http.StatusNotFound, "no storage configured")
		return
	}

	records, err := s.storage.GetBlockRecords(r.Context())
	if err != nil {
		log.Error("failed to read blocks: ", err)
		s.writeError(writer, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(writer, http.StatusOK, records)
}
