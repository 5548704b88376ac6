package relay

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quantdesk/server/internal/auth"
	"quantdesk/server/internal/preset"
	"quantdesk/server/pkg/quant"
)

// Caller starts a backend request and reports its outcome through exactly
// one of the callbacks. *quant.Client implements it.
type Caller interface {
	SendFunc(command string, params quant.Params, onLoad func(json.RawMessage), onError func(error)) *quant.Call
}

// Server relays websocket frames to the pricing backend.
type Server struct {
	Caller   Caller
	Presets  preset.Repo
	Verifier *auth.Verifier
	Log      *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(caller Caller, presets preset.Repo, verifier *auth.Verifier, logger *log.Logger) *Server {
	if verifier == nil {
		verifier = auth.NewVerifier(auth.ModeNone, "", "")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		Caller:   caller,
		Presets:  presets,
		Verifier: verifier,
		Log:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) SetupRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/")
	api.Use(s.Verifier.Middleware())
	api.GET("/ws", s.HandleWS)
	api.GET("/presets", s.listPresets)
}

// Engine returns a gin engine with the relay routes installed.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	s.SetupRoutes(r)
	return r
}

func (s *Server) listPresets(c *gin.Context) {
	list, err := s.Presets.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []*preset.Preset{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) HandleWS(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Log.Printf("[WS] Upgrade failed: %v", err)
		return
	}
	s.Log.Printf("[WS] New connection from %s", c.Request.RemoteAddr)

	conn := &conn{ws: ws, srv: s}
	// in-flight calls are bounded by the client timeout (backend.timeout > 0)
	defer func() {
		conn.inflight.Wait()
		ws.Close()
	}()
	conn.sendEvent("ready", gin.H{"subject": c.GetString("subject")})
	conn.loop()
}

// conn serializes writes to one websocket. Replies to relayed calls are
// written from the callback goroutines in completion order.
type conn struct {
	ws  *websocket.Conn
	srv *Server

	mu       sync.Mutex
	inflight sync.WaitGroup
}

func (c *conn) write(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(v); err != nil {
		c.srv.Log.Printf("[WS] Write error: %v", err)
	}
}

func (c *conn) sendEvent(name string, data any) {
	c.write(Event{Type: "event", Event: name, Data: data})
}

func (c *conn) reply(id string, data any) {
	c.write(Response{Type: "response", RequestID: id, Code: http.StatusOK, Data: data})
}

func (c *conn) fail(id string, code int, err error) {
	c.write(Response{Type: "error", RequestID: id, Code: code, Message: err.Error()})
}

func (c *conn) loop() {
	for {
		_, b, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.srv.Log.Printf("[WS] Read error: %v", err)
			}
			return
		}
		var req Request
		if err := json.Unmarshal(b, &req); err != nil {
			c.fail("", http.StatusBadRequest, errors.New("bad request"))
			continue
		}
		if req.RequestID == "" {
			req.RequestID = uuid.NewString()
		}
		c.handle(req)
	}
}

type callParams struct {
	Command string       `json:"command"`
	Params  quant.Params `json:"params"`
}

type aliasParams struct {
	Alias string `json:"alias"`
}

type savePresetParams struct {
	Alias   string       `json:"alias"`
	Command string       `json:"command"`
	Params  quant.Params `json:"params"`
}

func (c *conn) handle(req Request) {
	switch req.Command {
	case "call":
		var p callParams
		if err := decodeParams(req.Params, &p); err != nil || p.Command == "" {
			c.fail(req.RequestID, http.StatusBadRequest, errors.New("call needs params.command"))
			return
		}
		c.relay(req.RequestID, p.Command, p.Params)

	case "preset":
		var p aliasParams
		if err := decodeParams(req.Params, &p); err != nil || p.Alias == "" {
			c.fail(req.RequestID, http.StatusBadRequest, errors.New("preset needs params.alias"))
			return
		}
		pr, err := c.srv.Presets.Get(p.Alias)
		if err != nil {
			c.fail(req.RequestID, presetCode(err), err)
			return
		}
		c.relay(req.RequestID, pr.Command, pr.Params)

	case "save_preset":
		var p savePresetParams
		if err := decodeParams(req.Params, &p); err != nil {
			c.fail(req.RequestID, http.StatusBadRequest, err)
			return
		}
		pr := &preset.Preset{Alias: p.Alias, Command: p.Command, Params: p.Params}
		if err := c.srv.Presets.Save(pr); err != nil {
			c.fail(req.RequestID, http.StatusBadRequest, err)
			return
		}
		c.reply(req.RequestID, pr)

	case "delete_preset":
		var p aliasParams
		if err := decodeParams(req.Params, &p); err != nil {
			c.fail(req.RequestID, http.StatusBadRequest, err)
			return
		}
		if err := c.srv.Presets.Delete(p.Alias); err != nil {
			c.fail(req.RequestID, presetCode(err), err)
			return
		}
		c.reply(req.RequestID, gin.H{"status": "ok"})

	case "list_presets":
		list, err := c.srv.Presets.List()
		if err != nil {
			c.fail(req.RequestID, http.StatusInternalServerError, err)
			return
		}
		if list == nil {
			list = []*preset.Preset{}
		}
		c.reply(req.RequestID, list)

	default:
		c.fail(req.RequestID, http.StatusBadRequest, errors.New("unknown command: "+req.Command))
	}
}

// relay starts the backend call and returns; the reply is written when it
// completes.
func (c *conn) relay(id, command string, params quant.Params) {
	c.inflight.Add(1)
	c.srv.Caller.SendFunc(command, params,
		func(body json.RawMessage) {
			defer c.inflight.Done()
			if !json.Valid(body) {
				c.reply(id, string(body))
				return
			}
			c.reply(id, body)
		},
		func(err error) {
			defer c.inflight.Done()
			c.srv.Log.Printf("[WS] %s %s failed: %v", id, command, err)
			c.fail(id, callCode(err), err)
		},
	)
}

func decodeParams(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func callCode(err error) int {
	var se *quant.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	var serr *quant.ServerError
	if errors.As(err, &serr) {
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}

func presetCode(err error) int {
	if errors.Is(err, preset.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
