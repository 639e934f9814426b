package model

import (
	"io"
	"os"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// SaveSummary はサマリーを検証してから JSON でファイルに保存する
//
// 使用例:
//
//	err := model.SaveSummary(sm.Summary(), "rmts.json")
func SaveSummary(s *Summary, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer file.Close()
	return SaveSummaryToWriter(s, file)
}

// LoadSummary はファイルからサマリーを読み込み、検証する
func LoadSummary(filename string) (*Summary, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()
	return LoadSummaryFromReader(file)
}

// SaveSummaryToWriter はサマリーを io.Writer に書き出す
func SaveSummaryToWriter(s *Summary, w io.Writer) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := s.ToJSON()
	if err != nil {
		return errors.Wrap(err, "failed to encode summary")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, "failed to write summary")
	}
	return nil
}

// LoadSummaryFromReader は io.Reader からサマリーを読み込む
func LoadSummaryFromReader(r io.Reader) (*Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read summary")
	}
	s := &Summary{}
	if err := s.FromJSON(data); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
