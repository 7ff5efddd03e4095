package main

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
	"github.com/jose-valero/queue-display-bot/internal/infra/storage"
)

type app struct {
	notify func(ctx context.Context, queueID string) error
	secret string
	log    logger.Logger
}

func main() {
	log, err := logger.New(os.Getenv("LOG_LEVEL"), "json")
	if err != nil {
		log = logger.Nop()
	}

	a := &app{secret: os.Getenv("EVENTS_SECRET"), log: log}
	pool, err := newPool(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Error("[webhook] db", "error", err)
	}
	if pool != nil {
		a.notify = func(ctx context.Context, queueID string) error {
			_, err := pool.Exec(ctx, `SELECT pg_notify($1, $2)`, storage.NotifyChannel, queueID)
			return err
		}
	}
	lambda.Start(a.handler)
}

func newPool(dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, nil
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return pgxpool.NewWithConfig(ctx, cfg)
}

func readSecret(req events.APIGatewayV2HTTPRequest) string {
	// API Gateway v2 manda los headers en minúscula
	for k, v := range req.Headers {
		if strings.EqualFold(k, "x-events-secret") {
			return v
		}
	}
	return ""
}

func (a *app) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	a.log.Debug("[webhook] hit", "path", req.RawPath, "method", req.RequestContext.HTTP.Method, "ip", req.RequestContext.HTTP.SourceIP)

	got := readSecret(req)
	if a.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(a.secret)) != 1 {
		return reply(401, "unauthorized"), nil
	}

	body := req.Body
	if req.IsBase64Encoded {
		dec, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return reply(400, "invalid base64"), nil
		}
		body = string(dec)
	}

	queueID := strings.TrimSpace(req.PathParameters["queue_id"])
	if queueID == "" {
		var evt struct {
			QueueID string `json:"queue_id"`
		}
		if err := json.Unmarshal([]byte(body), &evt); err != nil {
			return reply(400, "invalid json"), nil
		}
		queueID = strings.TrimSpace(evt.QueueID)
	}
	if queueID == "" {
		return reply(400, "missing queue_id"), nil
	}

	if a.notify == nil {
		return reply(503, "no database"), nil
	}
	nctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.notify(nctx, queueID); err != nil {
		a.log.Warn("[webhook] notify", "queue_id", queueID, "error", err)
		return reply(502, "notify failed"), nil
	}
	a.log.Info("[webhook] refresh requested", "queue_id", queueID)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: 202,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"ok":true}`,
	}, nil
}

func reply(code int, msg string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{StatusCode: code, Body: msg}
}
