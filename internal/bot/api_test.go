package bot

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newAPIServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("TESTTOKEN")
	c.BaseURL = srv.URL
	return c, srv
}

func TestClient_SendMessage(t *testing.T) {
	c, _ := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTESTTOKEN/sendMessage" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("chat_id") != "42" || q.Get("text") != "hello" || q.Get("parse_mode") != "Markdown" {
			t.Errorf("query = %v", q)
		}
		io.WriteString(w, `{"ok":true,"result":true}`)
	})

	if err := c.SendMessage(context.Background(), 42, "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
}

func TestClient_APIFailure(t *testing.T) {
	c, _ := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ok":false,"description":"Forbidden: bot was blocked by the user","error_code":403}`)
	})

	err := c.SendMessage(context.Background(), 42, "hello")
	if !errors.Is(err, ErrAPIFailure) {
		t.Fatalf("got %v; want ErrAPIFailure", err)
	}
	if got := err.Error(); got == ErrAPIFailure.Error() {
		t.Fatalf("error lost the API description: %q", got)
	}
}

func TestClient_GetUpdates(t *testing.T) {
	c, _ := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("offset") != "17" {
			t.Errorf("offset = %q", q.Get("offset"))
		}
		if q.Get("timeout") != "30" {
			t.Errorf("timeout = %q", q.Get("timeout"))
		}
		io.WriteString(w, `{"ok":true,"result":[
			{"update_id":18,"message":{"message_id":1,"from":{"id":5,"first_name":"Ann"},"chat":{"id":5,"type":"private"},"text":"/start"}},
			{"update_id":19,"message":{"message_id":2,"from":{"id":5,"first_name":"Ann"},"chat":{"id":5,"type":"private"},"document":{"file_id":"d1","file_name":"a.pdf"}}}
		]}`)
	})

	ups, err := c.GetUpdates(context.Background(), 17, 30*time.Second)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(ups) != 2 {
		t.Fatalf("got %d updates", len(ups))
	}
	if ups[0].UpdateID != 18 || ups[0].Message.Text != "/start" {
		t.Fatalf("first update = %+v", ups[0])
	}
	if ups[1].Message.Document == nil || ups[1].Message.Document.FileID != "d1" {
		t.Fatalf("second update = %+v", ups[1])
	}
}

func TestClient_FetchFile(t *testing.T) {
	c, _ := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTESTTOKEN/getFile":
			if got := r.URL.Query().Get("file_id"); got != "d1" {
				t.Errorf("file_id = %q", got)
			}
			io.WriteString(w, `{"ok":true,"result":{"file_id":"d1","file_path":"documents/file_7.pdf"}}`)
		case "/file/botTESTTOKEN/documents/file_7.pdf":
			io.WriteString(w, "binary payload")
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	rc, err := c.FetchFile(context.Background(), "d1")
	if err != nil {
		t.Fatalf("FetchFile: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "binary payload" {
		t.Fatalf("payload = %q", body)
	}
}

func TestClient_FetchFile_DownloadError(t *testing.T) {
	c, _ := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/botTESTTOKEN/getFile" {
			io.WriteString(w, `{"ok":true,"result":{"file_path":"gone.bin"}}`)
			return
		}
		http.NotFound(w, r)
	})

	if _, err := c.FetchFile(context.Background(), "d1"); !errors.Is(err, ErrAPIFailure) {
		t.Fatalf("got %v; want ErrAPIFailure", err)
	}
}

func TestClient_IsMember(t *testing.T) {
	status := "member"
	c, _ := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("chat_id") != "@relaychan" || q.Get("user_id") != "5" {
			t.Errorf("query = %v", q)
		}
		io.WriteString(w, `{"ok":true,"result":{"status":"`+status+`"}}`)
	})

	for _, tc := range []struct {
		status string
		want   bool
	}{
		{"member", true},
		{"administrator", true},
		{"creator", true},
		{"restricted", true},
		{"left", false},
		{"kicked", false},
	} {
		status = tc.status
		ok, err := c.IsMember(context.Background(), "@relaychan", 5)
		if err != nil {
			t.Fatalf("IsMember(%s): %v", tc.status, err)
		}
		if ok != tc.want {
			t.Errorf("IsMember(%s) = %v; want %v", tc.status, ok, tc.want)
		}
	}
}

func TestClient_GetMe(t *testing.T) {
	c, _ := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ok":true,"result":{"id":1,"first_name":"Relay","username":"RelayBot"}}`)
	})

	me, err := c.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if me.Username != "RelayBot" {
		t.Fatalf("Username = %q", me.Username)
	}
}

func TestUser_DisplayName(t *testing.T) {
	cases := []struct {
		u    *User
		want string
	}{
		{&User{FirstName: "Ann"}, "Ann"},
		{&User{FirstName: "Ann", LastName: "Lee"}, "Ann Lee"},
		{&User{Username: "annl"}, "annl"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := tc.u.DisplayName(); got != tc.want {
			t.Errorf("DisplayName(%+v) = %q; want %q", tc.u, got, tc.want)
		}
	}
}
