package models

// SavedParagraph is a paragraph translation exercise kept for later review.
type SavedParagraph struct {
	ID                 string   `json:"id"`
	ArabicText         string   `json:"arabicText"`
	EnglishTranslation string   `json:"englishTranslation,omitempty"`
	Words              []string `json:"words"`
	CreatedAt          int64    `json:"createdAt"`
	Score              *int     `json:"score,omitempty"`
}

// GeneratedParagraph is a paragraph to translate plus the words it uses.
type GeneratedParagraph struct {
	Paragraph string   `json:"paragraph"`
	UsedWords []string `json:"usedWords"`
	Fallback  bool     `json:"fallback"`
	Notice    string   `json:"notice,omitempty"`
}

// TranslationFeedback grades a user's translation.
type TranslationFeedback struct {
	Score          int      `json:"score"`
	Corrections    []string `json:"corrections"`
	Suggestions    []string `json:"suggestions"`
	ModelParagraph string   `json:"modelParagraph"`
	Fallback       bool     `json:"fallback"`
	Notice         string   `json:"notice,omitempty"`
}

// PronunciationDetails explains how to say a word.
type PronunciationDetails struct {
	Word      string   `json:"word"`
	IPA       string   `json:"ipa"`
	Syllables string   `json:"syllables"`
	Stress    string   `json:"stress"`
	Tips      string   `json:"tips"`
	Similar   []string `json:"similar"`
	Fallback  bool     `json:"fallback"`
}

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is a non-streamed assistant answer.
type ChatReply struct {
	Content  string `json:"content"`
	HTML     string `json:"html"`
	Fallback bool   `json:"fallback"`
}

// ArchaicMatch is an archaic or Old English word found in text.
type ArchaicMatch struct {
	Word    string `json:"word"`
	Meaning string `json:"meaning"`
	Kind    string `json:"kind"`
}
