// Package dashboard はブラウザからジョブを操作するためのローカルサーバーを提供します。
package dashboard

import (
	"context"
	_ "embed"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yourusername/vector-forge/internal/config"
	"github.com/yourusername/vector-forge/internal/display"
	"github.com/yourusername/vector-forge/internal/jobclient"
)

// Version はヘルスチェックで返すバージョンです。
const Version = "0.1.0"

//go:embed static/index.html
var indexHTML []byte

// JobRunner はダッシュボードから操作するジョブクライアントです。
type JobRunner interface {
	Start(ctx context.Context, sub jobclient.Submission) error
	View() jobclient.View
}

type server struct {
	runner     JobRunner
	hub        *display.Hub
	endpoint   jobclient.Endpoint
	origin     string
	httpClient *http.Client
	upgrader   websocket.Upgrader
	logger     *log.Logger
}

// NewRouter はダッシュボードのルーティングを設定した gin.Engine を返します。
func NewRouter(cfg *config.Config, runner JobRunner, hub *display.Hub, logger *log.Logger) *gin.Engine {
	if logger == nil {
		logger = log.Default()
	}
	s := &server{
		runner:     runner,
		hub:        hub,
		endpoint:   jobclient.NewEndpoint(cfg.APIBase),
		origin:     cfg.PageOrigin,
		httpClient: &http.Client{},
		logger:     logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	router.GET("/", s.handleIndex)
	router.GET("/health", s.handleHealth)
	// API_BASE 未設定時のリンクは相対パスになるため、バックエンドへ中継する
	router.GET("/download/*id", s.handleDownload)

	api := router.Group("/api")
	{
		api.POST("/start", s.handleStart)
		api.GET("/state", s.handleState)
	}
	router.GET("/ws", s.handleWebSocket)

	return router
}

func corsConfig(allowed string) cors.Config {
	corsCfg := cors.DefaultConfig()
	var origins []string
	for _, origin := range strings.Split(allowed, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			corsCfg.AllowAllOrigins = true
			return corsCfg
		}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}
	corsCfg.AllowOrigins = origins
	return corsCfg
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "vector-forge",
		"version": Version,
		"clients": s.hub.Clients(),
	})
}

// handleDownload は GET /download/:id をバックエンドの同じリンクへ中継します。
func (s *server) handleDownload(c *gin.Context) {
	id := strings.TrimPrefix(c.Param("id"), "/")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "ファイル名を指定してください。",
		})
		return
	}

	target, err := jobclient.ResolveURL(s.endpoint.DownloadURL(id), s.origin)
	if err != nil {
		s.logger.Printf("download id=%s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "ダウンロード先を解決できませんでした。",
		})
		return
	}
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target, nil)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Printf("download id=%s target=%s: %v", id, target, err)
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    "DOWNLOAD_FAILED",
			"message": "バックエンドからファイルを取得できませんでした。",
		})
		return
	}
	defer resp.Body.Close()

	extraHeaders := map[string]string{}
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		extraHeaders["Content-Disposition"] = disposition
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(resp.StatusCode, resp.ContentLength, contentType, resp.Body, extraHeaders)
}

func (s *server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.runner.View())
}

// handleStart は POST /api/start のハンドラーです。
func (s *server) handleStart(c *gin.Context) {
	sub, err := parseSubmission(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": err.Error(),
		})
		return
	}

	if err := s.runner.Start(c.Request.Context(), sub); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, s.runner.View())
}

func (s *server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade failed: %v", err)
		return
	}
	id := s.hub.Register(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.Unregister(id)
			return
		}
	}
}

// parseSubmission はフォームから Submission を組み立てます。
// フォームに存在しない項目は送信対象から外します。
func parseSubmission(c *gin.Context) (jobclient.Submission, error) {
	var sub jobclient.Submission

	fh, err := c.FormFile("file")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return sub, errors.New("アップロードされたファイルを読み込めませんでした。")
		}
		defer f.Close()
		data := make([]byte, fh.Size)
		if _, err := io.ReadFull(f, data); err != nil {
			return sub, errors.New("アップロードされたファイルを読み込めませんでした。")
		}
		sub.File = &jobclient.File{Name: fh.Filename, Data: data}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// ファイル未選択はクライアント側の検証に任せる
	default:
		return sub, errors.New("multipart/form-data でファイルを送信してください。")
	}

	if v, ok := c.GetPostForm("quality"); ok {
		q := jobclient.Quality(strings.TrimSpace(v))
		sub.Options.Quality = &q
	}
	if v, ok := c.GetPostForm("png_width_px"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return sub, errors.New("png_width_px は整数で指定してください。")
		}
		sub.Options.WidthPx = &n
	}
	if v, ok := c.GetPostForm("png_dpi"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return sub, errors.New("png_dpi は整数で指定してください。")
		}
		sub.Options.DPI = &n
	}
	if v, ok := c.GetPostForm("fill_color"); ok {
		color := strings.TrimSpace(v)
		sub.Options.FillColor = &color
	}
	return sub, nil
}

func respondWithError(c *gin.Context, err error) {
	var (
		validationErr *jobclient.ValidationError
		submissionErr *jobclient.SubmissionError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"field":   validationErr.Field,
			"message": validationErr.Message,
		})
	case errors.Is(err, jobclient.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{
			"code":    "BUSY",
			"message": "処理中のジョブがあります。",
		})
	case errors.As(err, &submissionErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    "UPLOAD_FAILED",
			"message": submissionErr.Error(),
		})
	case errors.Is(err, jobclient.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "CLIENT_CLOSED",
			"message": "クライアントは終了しています。",
		})
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusRequestTimeout, gin.H{
			"code":    "REQUEST_CANCELED",
			"message": "リクエストがキャンセルされました。",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "内部でエラーが発生しました。",
		})
	}
}
