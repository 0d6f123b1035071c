// Satomaru - Community Map Annotation Service
// Copyright 2026 Satomaru Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/satomaru-project/satomaru

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/satomaru-project/satomaru/internal/logging"
	"github.com/satomaru-project/satomaru/internal/models"
	"github.com/satomaru-project/satomaru/internal/store"
)

// CSV export format constants. The sheet is consumed by municipal staff, so
// headers and placeholder values are in Japanese.
const (
	csvFilename      = "pins_export.csv"
	csvTimeLayout    = "2006-01-02 15:04"
	csvAuthorLabel   = "ニックネーム"
	csvEmptyAddress  = ""
	csvNoModeration  = ""
	utf8BOM          = "\xEF\xBB\xBF"
)

var csvHeaders = []string{
	"ピンID",
	"緯度",
	"経度",
	"レイヤー",
	"タグキー",
	"タグ名",
	"メモ",
	"公開範囲",
	"グループ名",
	"作成者",
	"作成日時(JST)",
	"更新日時(JST)",
	"ステータス",
	"住所(簡易)",
	"モデレーション",
}

// jst renders export timestamps; loaded as a fixed zone so the binary does
// not depend on the host tzdata.
var jst = time.FixedZone("JST", 9*60*60)

// ExportCSV handles GET /export.csv: a full dump of pins in every status,
// filtered but never paginated.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter := &store.ExportFilter{
		Tag: r.URL.Query().Get("tag"),
	}

	var err error
	if filter.Since, err = parseTimeParam(r, "since"); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if filter.Until, err = parseTimeParam(r, "until"); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if layer := r.URL.Query().Get("layer"); layer != "" {
		if !models.Layer(layer).Valid() {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "layer must be one of: sumai kurashi manabi asobi other", nil)
			return
		}
		filter.Layer = models.Layer(layer)
	}

	pins := h.pins.Export(filter)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+csvFilename)
	w.WriteHeader(http.StatusOK)

	var sb strings.Builder
	sb.WriteString(utf8BOM)
	writeCSVRow(&sb, csvHeaders)
	for i := range pins {
		writeCSVRow(&sb, csvRow(&pins[i]))
	}

	if _, err := w.Write([]byte(sb.String())); err != nil {
		logging.Error().Err(err).Msg("Failed to write CSV response")
		return
	}

	logging.Ctx(r.Context()).Info().Int("rows", len(pins)).Msg("CSV export generated")
}

// csvRow flattens a pin into the export column order. The tag fills both the
// key and display-name columns; author, address, and moderation columns are
// placeholders until those features land.
func csvRow(pin *models.Pin) []string {
	updatedAt := ""
	if pin.UpdatedAt != nil {
		updatedAt = pin.UpdatedAt.In(jst).Format(csvTimeLayout)
	}

	return []string{
		pin.ID,
		strconv.FormatFloat(pin.Lat, 'f', -1, 64),
		strconv.FormatFloat(pin.Lng, 'f', -1, 64),
		string(pin.Layer),
		pin.Tag,
		pin.Tag,
		pin.Note,
		string(pin.Visibility),
		pin.GroupID,
		csvAuthorLabel,
		pin.CreatedAt.In(jst).Format(csvTimeLayout),
		updatedAt,
		string(pin.Status),
		csvEmptyAddress,
		csvNoModeration,
	}
}

// writeCSVRow appends one escaped, CRLF-terminated row.
func writeCSVRow(sb *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(escapeCSV(field))
	}
	sb.WriteString("\r\n")
}
