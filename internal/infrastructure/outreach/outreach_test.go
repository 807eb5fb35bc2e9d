package outreach

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess stands in for the collaborator script.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	// args: script action flags...
	switch args[1] {
	case "search":
		fmt.Print(`{"emails":["a@fund.vc","b@fund.vc"]}`)
	case "draft":
		fmt.Print(`{"subject":"Intro","body":"Hi from ` + args[len(args)-1] + `"}`)
	case "fail":
		fmt.Fprint(os.Stderr, "boom")
		os.Exit(3)
	case "sleep":
		time.Sleep(5 * time.Second)
	}
	os.Exit(0)
}

func helperCollaborator(t *testing.T, timeout time.Duration) *ProcessCollaborator {
	t.Helper()
	p, err := NewProcessCollaborator("", "collab.py", timeout, nil)
	require.NoError(t, err)
	p.command = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
		return cmd
	}
	return p
}

func TestProcessCollaborator_SearchAndDraft(t *testing.T) {
	p := helperCollaborator(t, 10*time.Second)

	emails, err := p.SearchEmails(context.Background(), "fintech", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@fund.vc", "b@fund.vc"}, emails)

	d, err := p.DraftEmail(context.Background(), DraftRequest{Topic: "fintech", Summary: "s", FromName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, Draft{Subject: "Intro", Body: "Hi from Ada"}, d)
}

func TestProcessCollaborator_Failures(t *testing.T) {
	p := helperCollaborator(t, 10*time.Second)
	out := &searchResponse{}
	err := p.run(context.Background(), out, "fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	p = helperCollaborator(t, 50*time.Millisecond)
	err = p.run(context.Background(), out, "sleep")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = NewProcessCollaborator("python3", " ", 0, nil)
	assert.Error(t, err)
}

func TestHTTPCollaborator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			var req searchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 3, req.Max)
			_, _ = w.Write([]byte(`{"emails":["x@y.z"]}`))
		case "/draft":
			_, _ = w.Write([]byte(`{"subject":"S","body":""}`))
		default:
			http.Error(w, "nope", http.StatusTeapot)
		}
	}))
	defer srv.Close()

	c := NewHTTPCollaborator(srv.URL+"/", time.Second, nil)
	emails, err := c.SearchEmails(context.Background(), " ai ", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"x@y.z"}, emails)

	_, err = c.DraftEmail(context.Background(), DraftRequest{Topic: "ai"})
	assert.ErrorIs(t, err, ErrEmptyResult)

	err = c.post(context.Background(), "/missing", struct{}{}, &struct{}{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "status=418"))

	assert.Nil(t, NewHTTPCollaborator(" ", 0, nil))
}
