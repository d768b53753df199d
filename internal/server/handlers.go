package server

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/crispit/crispit-server/internal/analysis"
	"github.com/crispit/crispit-server/internal/barcode"
	"github.com/crispit/crispit-server/internal/storage"
)

// spokenReplyLimit caps how much of a chat reply is synthesized.
const spokenReplyLimit = 500

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type imageRequest struct {
	Image  string `json:"image"`
	UserID string `json:"user_id"`
}

// handleScan analyzes a produce photo and records the result in the
// caller's scan history. A packaged-item mismatch is a 200 with
// is_produce:false so the client can retry under /api/analyze/packaged.
func (s *Server) handleScan(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.analysis.AnalyzeFreshness(c.Request.Context(), req.Image)
	if err != nil {
		writeError(c, err)
		return
	}
	if result.NotProduce {
		c.JSON(http.StatusOK, gin.H{"is_produce": false, "message": result.Message})
		return
	}

	resp := gin.H{"is_produce": true, "analysis": result.Analysis}
	if req.UserID != "" {
		co2e := 0.0
		if result.Analysis.CarbonFootprint != nil {
			co2e = result.Analysis.CarbonFootprint.CO2ePerKg
		}
		stats, err := s.store.RecordScan(&storage.Scan{
			UserID:         req.UserID,
			ItemName:       result.Analysis.ItemName,
			Category:       string(result.Analysis.Category),
			FreshnessScore: result.Analysis.FreshnessScore,
			CO2ePerKg:      co2e,
		})
		if err != nil {
			// History is best-effort; the analysis already succeeded.
			log.Error().Err(err).Str("userId", req.UserID).Msg("failed to record scan")
		} else {
			resp["stats"] = stats
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleFreshness(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.analysis.AnalyzeFreshness(c.Request.Context(), req.Image)
	if err != nil {
		writeError(c, err)
		return
	}
	if result.NotProduce {
		c.JSON(http.StatusOK, gin.H{"is_produce": false, "message": result.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_produce": true, "analysis": result.Analysis})
}

func (s *Server) handlePackaged(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.analysis.AnalyzePackaged(c.Request.Context(), req.Image)
	if err != nil {
		writeError(c, err)
		return
	}
	if result.NotPackaged {
		c.JSON(http.StatusOK, gin.H{"is_packaged": false, "message": result.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_packaged": true, "item": result.Item})
}

// handleLiveScan never fails on provider trouble: the orchestrator
// degrades to an empty frame so a camera preview keeps running.
func (s *Server) handleLiveScan(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.analysis.DetectLive(c.Request.Context(), req.Image)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleRecipes(c *gin.Context) {
	var req struct {
		Ingredients []string `json:"ingredients"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	recipes, err := s.analysis.GenerateRecipes(c.Request.Context(), req.Ingredients)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (s *Server) handleShopping(c *gin.Context) {
	var req struct {
		Items []string `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	guidance, err := s.analysis.ShoppingGuidance(c.Request.Context(), req.Items)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, guidance)
}

func (s *Server) handleVoiceChat(c *gin.Context) {
	var req struct {
		Audio    string              `json:"audio"`
		MIMEType string              `json:"mime_type"`
		Text     string              `json:"text"`
		History  []analysis.ChatTurn `json:"history"`
		WakeWord string              `json:"wake_word"`
		Speak    bool                `json:"speak"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.analysis.VoiceChat(c.Request.Context(), analysis.VoiceChatInput{
		Audio:    req.Audio,
		MIMEType: req.MIMEType,
		Text:     req.Text,
		History:  req.History,
		WakeWord: req.WakeWord,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{
		"transcript": result.Transcript,
		"response":   result.Response,
	}
	if result.WakeWordDetected != nil {
		resp["wakeWordDetected"] = *result.WakeWordDetected
	}

	// Spoken replies are best-effort: a TTS failure degrades to text.
	if req.Speak && result.Response != "" && s.synth != nil {
		spoken := result.Response
		if len(spoken) > spokenReplyLimit {
			spoken = spoken[:spokenReplyLimit]
		}
		audio, err := s.synth.Synthesize(c.Request.Context(), spoken)
		if err != nil {
			log.Warn().Err(err).Msg("speech synthesis failed, returning text only")
		} else {
			resp["audio"] = base64.StdEncoding.EncodeToString(audio)
			resp["audio_mime_type"] = "audio/mpeg"
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleChat(c *gin.Context) {
	var req struct {
		Message    string              `json:"message"`
		History    []analysis.ChatTurn `json:"history"`
		Collection string              `json:"collection"`
		Fridge     string              `json:"fridge"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	reply, err := s.analysis.TextChat(c.Request.Context(), req.Message, req.History, req.Collection, req.Fridge)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}

func (s *Server) handleSpeak(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	if s.synth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "speech synthesis is not configured"})
		return
	}

	audio, err := s.synth.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		log.Error().Err(err).Msg("speech synthesis failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "speech synthesis failed"})
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func (s *Server) handleCarbonItem(c *gin.Context) {
	fp := s.carbon.Lookup(c.Param("item"))
	if fp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no carbon data for item"})
		return
	}
	c.JSON(http.StatusOK, fp)
}

func (s *Server) handleCarbonAll(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": s.carbon.All()})
}

func (s *Server) handleBarcode(c *gin.Context) {
	product, err := s.barcodes.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, barcode.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		log.Error().Err(err).Str("barcode", c.Param("code")).Msg("barcode lookup failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "barcode lookup failed"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) handleRecentScans(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	scans, err := s.store.RecentScans(userID, limit)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("failed to query scans")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scan history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": scans})
}

func (s *Server) handleStats(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	stats, err := s.store.Stats(userID)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("failed to query stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
