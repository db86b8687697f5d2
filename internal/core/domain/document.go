package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type DocumentStatus string

const (
	StatusIdle       DocumentStatus = "idle"
	StatusUploading  DocumentStatus = "uploading"
	StatusProcessing DocumentStatus = "processing"
	StatusLoading    DocumentStatus = "loading"
	StatusDone       DocumentStatus = "done"
	StatusError      DocumentStatus = "error"
	StatusCapture    DocumentStatus = "capture"
)

// DocType names a trade-document kind. Values outside the known set are
// carried verbatim from the backend.
type DocType string

const (
	DocTypeFacturaComercial         DocType = "factura_comercial"
	DocTypePackingList              DocType = "packing_list"
	DocTypeBL                       DocType = "bl"
	DocTypeCertificadoFitosanitario DocType = "certificado_fitosanitario"
	DocTypeCertificadoOrigen        DocType = "certificado_origen"
	DocTypeDUS                      DocType = "dus"
	DocTypeGuiaDespacho             DocType = "guia_despacho"
	DocTypeInstruccionesEmbarque    DocType = "instrucciones_embarque"
)

var docTypeLabels = map[DocType]string{
	DocTypeFacturaComercial:         "Factura comercial",
	DocTypePackingList:              "Packing List",
	DocTypeBL:                       "Bill of Lading",
	DocTypeCertificadoFitosanitario: "Certificado Fitosanitario SAG",
	DocTypeCertificadoOrigen:        "Certificado de Origen",
	DocTypeDUS:                      "Declaración Aduanera (DUS)",
	DocTypeGuiaDespacho:             "Guía de Despacho",
	DocTypeInstruccionesEmbarque:    "Instrucciones de Embarque",
}

// Label returns the human label of a known kind, the raw value otherwise.
func (t DocType) Label() string {
	if label, ok := docTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

func (t DocType) Known() bool {
	_, ok := docTypeLabels[t]
	return ok
}

const (
	EntityIncoterm  = "incoterm"
	EntityAmount    = "amount"
	EntityHSCode    = "hs_code"
	EntityContainer = "container"
	EntityBLNumber  = "bl_number"
)

// Timestamp accepts both RFC3339 and the naive ISO-8601 values emitted by the
// OCR backend. Raw keeps the original text so unparseable values can still be shown.
type Timestamp struct {
	Time time.Time
	Raw  string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t, Raw: t.Format(time.RFC3339Nano)}
}

func ParseTimestamp(raw string) *Timestamp {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &Timestamp{Time: t, Raw: raw}
		}
	}
	return &Timestamp{Raw: raw}
}

func (ts *Timestamp) IsZero() bool {
	return ts == nil || (ts.Time.IsZero() && ts.Raw == "")
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Time.IsZero() {
		if ts.Raw == "" {
			return []byte("null"), nil
		}
		return json.Marshal(ts.Raw)
	}
	return json.Marshal(ts.Time.Format(time.RFC3339Nano))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// Numbers and other scalars are kept as text.
		raw = string(bytes.TrimSpace(data))
	}
	if parsed := ParseTimestamp(raw); parsed != nil {
		*ts = *parsed
		return nil
	}
	*ts = Timestamp{}
	return nil
}

type DocumentDetail struct {
	ID               string         `json:"id"`
	Status           DocumentStatus `json:"status"`
	DocType          DocType        `json:"docType,omitempty"`
	LanguageDetected string         `json:"languageDetected,omitempty"`
	CreatedAt        *Timestamp     `json:"createdAt,omitempty"`
	UpdatedAt        *Timestamp     `json:"updatedAt,omitempty"`
}

type TextBlock struct {
	Page       int     `json:"page,omitempty"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
}

type Entity struct {
	ID         string  `json:"id,omitempty"`
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Page       *int    `json:"page,omitempty"`
}

// Keyword scores are relative weights; nil means the backend sent none.
type Keyword struct {
	Keyword string   `json:"keyword"`
	Score   *float64 `json:"score"`
}

func ScoreOf(v float64) *float64 {
	return &v
}

// Bundle is one backend read of an analysed document. Insights is kept raw
// and normalized by the review engine.
type Bundle struct {
	Detail     *DocumentDetail `json:"detail"`
	TextBlocks []TextBlock     `json:"textBlocks"`
	Entities   []Entity        `json:"entities"`
	Keywords   []Keyword       `json:"keywords"`
	Insights   any             `json:"insights,omitempty"`
}
