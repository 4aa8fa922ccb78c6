package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"pvp-analytics/internal/config"
	"pvp-analytics/internal/domain"
	"pvp-analytics/internal/service"

	"connectrpc.com/connect"
)

const (
	IngestServiceName     = "pvp.v1.IngestService"
	IngestServicePath     = "/" + IngestServiceName + "/"
	IngestLogProcedure    = IngestServicePath + "IngestLog"
	base64OverheadPercent = 134
)

type IngestLogRequest struct {
	FileName string `json:"fileName"`
	Content  []byte `json:"content"`
}

type IngestLogResponse struct {
	UploadID string         `json:"uploadId"`
	Format   string         `json:"format"`
	Matches  []MatchSummary `json:"matches"`
}

type MatchSummary struct {
	ID           int64  `json:"id"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	ArenaZone    string `json:"arenaZone"`
	ArenaZoneID  int    `json:"arenaZoneId"`
	ArenaMatchID string `json:"arenaMatchId"`
	GameMode     string `json:"gameMode"`
	Duration     int    `json:"duration"`
	UniqueHash   string `json:"uniqueHash"`
	IsRanked     bool   `json:"isRanked"`
}

type IngestServer struct {
	ingestSvc      *service.IngestService
	maxUploadBytes int64
}

func NewIngestServer(ingestSvc *service.IngestService, cfg *config.Config) *IngestServer {
	return &IngestServer{ingestSvc: ingestSvc, maxUploadBytes: cfg.MaxUploadBytes}
}

// Handler returns the mount path and handler of the ingest service.
func (s *IngestServer) Handler() (string, http.Handler) {
	// content travels base64 encoded inside the JSON body
	readMax := s.maxUploadBytes*base64OverheadPercent/100 + 4096

	mux := http.NewServeMux()
	mux.Handle(IngestLogProcedure, connect.NewUnaryHandler(
		IngestLogProcedure,
		s.IngestLog,
		connect.WithCodec(jsonCodec{}),
		connect.WithReadMaxBytes(int(readMax)),
	))
	return IngestServicePath, mux
}

func (s *IngestServer) IngestLog(ctx context.Context, req *connect.Request[IngestLogRequest]) (*connect.Response[IngestLogResponse], error) {
	if len(req.Msg.Content) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, service.ErrEmptyUpload)
	}
	if int64(len(req.Msg.Content)) > s.maxUploadBytes {
		return nil, connect.NewError(connect.CodeResourceExhausted, errors.New("upload exceeds size limit"))
	}

	fileName := req.Msg.FileName
	if fileName == "" {
		fileName = "upload"
	}

	result, err := s.ingestSvc.Ingest(ctx, fileName, bytes.NewReader(req.Msg.Content))
	if errors.Is(err, service.ErrEmptyUpload) {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &IngestLogResponse{
		UploadID: result.UploadID,
		Format:   result.Format.String(),
		Matches:  make([]MatchSummary, 0, len(result.Matches)),
	}
	for _, m := range result.Matches {
		resp.Matches = append(resp.Matches, toMatchSummary(m))
	}
	return connect.NewResponse(resp), nil
}

func toMatchSummary(m domain.Match) MatchSummary {
	return MatchSummary{
		ID:           m.ID,
		StartTime:    m.StartTime.UTC().Format(time.RFC3339),
		EndTime:      m.EndTime.UTC().Format(time.RFC3339),
		ArenaZone:    m.ArenaZone.String(),
		ArenaZoneID:  int(m.ArenaZone),
		ArenaMatchID: m.ArenaMatchID,
		GameMode:     string(m.GameMode),
		Duration:     m.Duration,
		UniqueHash:   m.UniqueHash,
		IsRanked:     m.IsRanked,
	}
}
