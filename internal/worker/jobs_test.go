package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute/internal/worker"
)

func newProcessor(store *memoryStore) *worker.Processor {
	return worker.NewProcessor(worker.ProcessorConfig{
		ImportJob: worker.NewRiskImportJob(worker.RiskImportJobConfig{Store: store, Logger: zerolog.Nop()}),
		DB:        store,
		Logger:    zerolog.Nop(),
	})
}

func TestProcessor_RiskImport(t *testing.T) {
	store := &memoryStore{}
	p := newProcessor(store)

	path := writeCSV(t, validCSV)
	err := p.Process(context.Background(), []byte(`{"job_type":"risk_import","source_path":"`+path+`"}`))
	require.NoError(t, err)
	assert.Len(t, store.entries, 2)
}

func TestProcessor_Outcomes(t *testing.T) {
	good := writeCSV(t, validCSV)
	bad := writeCSV(t, "u,v,k,risk_proba\n1,2,0,2\n")

	tests := []struct {
		name     string
		storeErr error
		payload  string
		wantErr  bool
		discard  bool
	}{
		{name: "health check", payload: `{"job_type":"health_check"}`},
		{name: "health check with database down", storeErr: errors.New("down"), payload: `{"job_type":"health_check"}`, wantErr: true},
		{name: "malformed json", payload: `{"job_type":`, wantErr: true, discard: true},
		{name: "unknown job type", payload: `{"job_type":"provider_refresh"}`, wantErr: true, discard: true},
		{name: "import without source", payload: `{"job_type":"risk_import"}`, wantErr: true, discard: true},
		{name: "import of missing file", payload: `{"job_type":"risk_import","source_path":"/nonexistent/risk.csv"}`, wantErr: true, discard: true},
		{name: "import of invalid file", payload: `{"job_type":"risk_import","source_path":"` + bad + `"}`, wantErr: true, discard: true},
		{name: "import with store down", storeErr: errors.New("down"), payload: `{"job_type":"risk_import","source_path":"` + good + `"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProcessor(&memoryStore{err: tt.storeErr})

			err := p.Process(context.Background(), []byte(tt.payload))
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.discard, errors.Is(err, worker.ErrDiscard))
		})
	}
}

func TestProcessor_HealthCheckWithoutDatabase(t *testing.T) {
	p := worker.NewProcessor(worker.ProcessorConfig{Logger: zerolog.Nop()})

	assert.NoError(t, p.Process(context.Background(), []byte(`{"job_type":"health_check"}`)))
	assert.ErrorIs(t, p.Process(context.Background(), []byte(`{"job_type":"risk_import","source_path":"x"}`)), worker.ErrDiscard)
}
