package model

import (
	"encoding/json"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// SummaryVersion はサマリー形式のバージョン
const SummaryVersion = "1"

// Summary は学習済みサロゲートモデルの概要（ログ出力・保存用）
type Summary struct {
	// Model はモデルの名前（LS, KPLS, RMTS 等）
	Model string `json:"model"`

	// Version はサマリー形式のバージョン
	Version string `json:"version"`

	// Trained はモデルが学習済みかどうか
	Trained bool `json:"trained"`

	NX int `json:"nx"`
	NY int `json:"ny"`

	// Points は忠実度クラスごとの学習点数
	Points map[string]int `json:"points"`

	// Options は明示的に設定されたオプション（行列は [][]float64 に変換済み）
	Options map[string]interface{} `json:"options"`

	// Metadata は追加のメタデータ（学習時間等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ToJSON はSummaryをJSON形式にシリアライズ
func (s *Summary) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FromJSON はJSON形式からSummaryをデシリアライズ
func (s *Summary) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, s); err != nil {
		return errors.Wrap(err, "model.Summary.FromJSON")
	}
	return nil
}

// TotalPoints は全クラスの学習点数の合計
func (s *Summary) TotalPoints() int {
	n := 0
	for _, c := range s.Points {
		n += c
	}
	return n
}

// Validate はSummaryの妥当性を検証
func (s *Summary) Validate() error {
	if s.Model == "" {
		return errors.NewValueError("model.Summary.Validate", "model is required")
	}
	if s.Version == "" {
		return errors.NewValueError("model.Summary.Validate", "version is required")
	}
	if s.Trained && (s.NX <= 0 || s.NY <= 0) {
		return errors.NewValueError("model.Summary.Validate", "trained model must have positive nx and ny")
	}
	if s.Trained && s.TotalPoints() == 0 {
		return errors.NewValueError("model.Summary.Validate", "trained model must have training points")
	}
	return nil
}

// Clone はSummaryのコピーを作成（Options と Metadata の値は浅いコピー）
func (s *Summary) Clone() *Summary {
	clone := &Summary{
		Model:    s.Model,
		Version:  s.Version,
		Trained:  s.Trained,
		NX:       s.NX,
		NY:       s.NY,
		Points:   make(map[string]int, len(s.Points)),
		Options:  make(map[string]interface{}, len(s.Options)),
		Metadata: make(map[string]interface{}, len(s.Metadata)),
	}
	for k, v := range s.Points {
		clone.Points[k] = v
	}
	for k, v := range s.Options {
		clone.Options[k] = v
	}
	for k, v := range s.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}
