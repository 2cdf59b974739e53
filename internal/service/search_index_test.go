package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/taskboard/internal/search"
)

var _ TaskSearcher = (*search.TaskIndex)(nil)

// esStub answers index, delete and search calls for a single index. Search
// returns indexed ids newest first.
type esStub struct {
	mu    sync.Mutex
	order []string
	fail  bool
}

func (s *esStub) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/_search"):
		if s.fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":"unavailable"}`)
			return
		}
		hits := make([]string, 0, len(s.order))
		for i := len(s.order) - 1; i >= 0; i-- {
			hits = append(hits, `{"_id":"`+s.order[i]+`"}`)
		}
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":`+strconv.Itoa(len(hits))+`},"hits":[`+strings.Join(hits, ",")+`]}}`)
	case r.Method == http.MethodPut:
		s.order = append(s.order, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
		_, _ = io.WriteString(w, `{"result":"created"}`)
	case r.Method == http.MethodDelete:
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		_, _ = io.WriteString(w, `{"result":"deleted"}`)
	default:
		_, _ = io.WriteString(w, `{}`)
	}
}

func (s *esStub) setFail(v bool) {
	s.mu.Lock()
	s.fail = v
	s.mu.Unlock()
}

func (s *esStub) indexed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func TestTaskService_SearchThroughElasticsearch(t *testing.T) {
	stub := &esStub{}
	srv := httptest.NewServer(http.HandlerFunc(stub.handler))
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, f.user(t, "o@x.io").ID)
	col := f.column(t, p.ID, "Todo", 0)
	f.tasks.Index = &search.TaskIndex{ES: es, Name: "tasks"}

	a, err := f.tasks.Create(ctx, p.ID, NewTask{Title: "ship api", ColumnID: col.ID})
	require.NoError(t, err)
	b, err := f.tasks.Create(ctx, p.ID, NewTask{Title: "ship web", ColumnID: col.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, stub.indexed())

	page, err := f.tasks.Search(ctx, p.ID, "ship", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID}, []uuid.UUID{page.Items[0].ID, page.Items[1].ID})

	stub.setFail(true)
	page, err = f.tasks.Search(ctx, p.ID, "web", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, b.ID, page.Items[0].ID)

	stub.setFail(false)
	require.NoError(t, f.tasks.Delete(ctx, p.ID, a.ID))
	assert.Equal(t, 1, stub.indexed())
}
