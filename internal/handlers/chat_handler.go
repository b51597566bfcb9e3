package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// chatTimeout bounds the upstream round trip so a hung assistant cannot
// hang the request.
const chatTimeout = 30 * time.Second

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
	} `json:"candidates"`
}

const defaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent?key="

const assistantPrompt = `You are Calmana, the in-app wellness companion for a mental health support app. Follow these rules:
1. Be warm, calm and encouraging. Keep answers short and conversational.
2. You may suggest general well-being practices: breathing exercises, journaling, mood tracking, sleep hygiene, booking a session with a doctor through the app.
3. You are not a clinician. Never diagnose, never recommend or discuss medication, never contradict a doctor's advice.
4. If the user appears to be in crisis or mentions self-harm, tell them to contact local emergency services or a crisis hotline immediately, and to reach their doctor through the app.
5. For questions outside well-being support, reply: "I can only help with wellness topics inside Calmana. For anything else, please ask your doctor."`

// HandleChat handles POST /api/chat by proxying the message to the
// Gemini API with the Calmana assistant prompt.
func (h *Handler) HandleChat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Message cannot be empty"})
		return
	}
	if h.GeminiAPIKey == "" {
		h.Log.Error("chat request received but GEMINI_API_KEY is not configured")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant unavailable"})
		return
	}

	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: assistantPrompt}}},
			{Role: "model", Parts: []geminiPart{{Text: "Understood. I will follow these rules."}}},
			{Role: "user", Parts: []geminiPart{{Text: req.Message}}},
		},
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		h.serverError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), chatTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.geminiURL+h.GeminiAPIKey, bytes.NewBuffer(jsonBody))
	if err != nil {
		h.serverError(c, err)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		h.Log.WithError(err).Error("assistant request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		h.serverError(c, err)
		return
	}
	if resp.StatusCode != http.StatusOK {
		h.Log.WithField("status", resp.StatusCode).Error("assistant returned an error")
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
		return
	}

	var gemini geminiResponse
	if err := json.Unmarshal(respBody, &gemini); err != nil {
		h.serverError(c, err)
		return
	}
	if len(gemini.Candidates) == 0 || len(gemini.Candidates[0].Content.Parts) == 0 {
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant returned an empty response"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": gemini.Candidates[0].Content.Parts[0].Text,
	})
}
