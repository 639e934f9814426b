// Package training は学習点ストアと入力定義域ガードを提供します。
//
// Store は忠実度クラスごとに (X, Y) のチャンクを追加順に保持します。
// クラスは名前順の B-tree に格納されるため、Classes と StackAll の順序は
// 決定的です。
package training

import (
	"github.com/google/btree"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// Exact は最高忠実度クラスの名前です。クラス名を省略した追加はここに入ります。
const Exact = "exact"

// Chunk は一度の Add で追加された学習点です。X は (n, nx)、Y は (n, ny)。
type Chunk struct {
	X *mat.Dense
	Y *mat.Dense
}

// Rows はチャンクの行数を返します。
func (c Chunk) Rows() int {
	r, _ := c.X.Dims()
	return r
}

type classEntry struct {
	name   string
	chunks []Chunk
	rows   int
}

func lessClass(a, b *classEntry) bool { return a.name < b.name }

// Store は忠実度クラス別の学習点コンテナです。並行な更新には対応しません。
type Store struct {
	classes *btree.BTreeG[*classEntry]
	nx, ny  int
	rows    int
}

// NewStore は空のストアを作成します。
func NewStore() *Store {
	return &Store{classes: btree.NewG[*classEntry](8, lessClass)}
}

func className(class string) string {
	if class == "" {
		return Exact
	}
	return class
}

// CheckShapes は X, Y をストアに追加できるか形状のみ検証します。
// 最初の追加前は列数の制約はありません。
func (s *Store) CheckShapes(X, Y mat.Matrix) error {
	if X == nil || Y == nil {
		return errors.NewValueError("training.Store.Add", "X and Y must not be nil")
	}
	xr, xc := X.Dims()
	yr, yc := Y.Dims()
	if xr == 0 || xc == 0 || yc == 0 {
		return errors.NewValueError("training.Store.Add", "empty training chunk")
	}
	if xr != yr {
		return errors.NewDimensionError("training.Store.Add", xr, yr, 0)
	}
	if s.nx > 0 && xc != s.nx {
		return errors.NewDimensionError("training.Store.Add", s.nx, xc, 1)
	}
	if s.ny > 0 && yc != s.ny {
		return errors.NewDimensionError("training.Store.Add", s.ny, yc, 1)
	}
	return nil
}

// Add は X, Y のコピーを class の末尾に追加します。
// 形状エラーの場合ストアは変更されません。
func (s *Store) Add(class string, X, Y mat.Matrix) error {
	if err := s.CheckShapes(X, Y); err != nil {
		return err
	}
	c := Chunk{X: mat.DenseCopyOf(X), Y: mat.DenseCopyOf(Y)}
	name := className(class)

	e, ok := s.classes.Get(&classEntry{name: name})
	if !ok {
		e = &classEntry{name: name}
		s.classes.ReplaceOrInsert(e)
	}
	e.chunks = append(e.chunks, c)
	e.rows += c.Rows()
	s.rows += c.Rows()
	_, s.nx = c.X.Dims()
	_, s.ny = c.Y.Dims()
	return nil
}

// Classes は点を持つクラス名を名前順で返します。
func (s *Store) Classes() []string {
	out := make([]string, 0, s.classes.Len())
	s.classes.Ascend(func(e *classEntry) bool {
		out = append(out, e.name)
		return true
	})
	return out
}

// Chunks は class のチャンクのコピーを追加順で返します。
func (s *Store) Chunks(class string) []Chunk {
	e, ok := s.classes.Get(&classEntry{name: className(class)})
	if !ok {
		return nil
	}
	out := make([]Chunk, len(e.chunks))
	for i, c := range e.chunks {
		out[i] = Chunk{X: mat.DenseCopyOf(c.X), Y: mat.DenseCopyOf(c.Y)}
	}
	return out
}

// ClassLen は class の行数を返します。
func (s *Store) ClassLen(class string) int {
	e, ok := s.classes.Get(&classEntry{name: className(class)})
	if !ok {
		return 0
	}
	return e.rows
}

// Counts はクラスごとの行数を返します。
func (s *Store) Counts() map[string]int {
	out := make(map[string]int, s.classes.Len())
	s.classes.Ascend(func(e *classEntry) bool {
		out[e.name] = e.rows
		return true
	})
	return out
}

// Stack は class の全チャンクを縦に連結します。クラスが無ければ nil を返します。
func (s *Store) Stack(class string) (X, Y *mat.Dense) {
	e, ok := s.classes.Get(&classEntry{name: className(class)})
	if !ok {
		return nil, nil
	}
	return stack(e.chunks, e.rows, s.nx, s.ny)
}

// StackAll は全クラスの点をクラス名順に連結します。空なら nil を返します。
func (s *Store) StackAll() (X, Y *mat.Dense) {
	if s.rows == 0 {
		return nil, nil
	}
	var chunks []Chunk
	s.classes.Ascend(func(e *classEntry) bool {
		chunks = append(chunks, e.chunks...)
		return true
	})
	return stack(chunks, s.rows, s.nx, s.ny)
}

func stack(chunks []Chunk, rows, nx, ny int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(rows, nx, nil)
	Y := mat.NewDense(rows, ny, nil)
	off := 0
	for _, c := range chunks {
		n := c.Rows()
		X.Slice(off, off+n, 0, nx).(*mat.Dense).Copy(c.X)
		Y.Slice(off, off+n, 0, ny).(*mat.Dense).Copy(c.Y)
		off += n
	}
	return X, Y
}

// Walk は各チャンクに fn をクラス名順・追加順で適用します。fn が false を返すと中断します。
// fn に渡される行列は読み取り専用です。
func (s *Store) Walk(fn func(class string, c Chunk) bool) {
	s.classes.Ascend(func(e *classEntry) bool {
		for _, c := range e.chunks {
			if !fn(e.name, c) {
				return false
			}
		}
		return true
	})
}

// Len は全クラスの合計行数を返します。
func (s *Store) Len() int { return s.rows }

// Dims は確定済みの入力次元と出力次元を返します。空のストアでは (0, 0)。
func (s *Store) Dims() (nx, ny int) { return s.nx, s.ny }

// Reset は全ての点と確定済みの次元を破棄します。
func (s *Store) Reset() {
	s.classes.Clear(false)
	s.nx, s.ny, s.rows = 0, 0, 0
}

// Clone は独立したコピーを返します。チャンクの行列も複製するので、
// コピー側を書き換えても元のストアには影響しません。
func (s *Store) Clone() *Store {
	c := NewStore()
	s.classes.Ascend(func(e *classEntry) bool {
		ce := &classEntry{name: e.name, rows: e.rows, chunks: make([]Chunk, len(e.chunks))}
		for i, ch := range e.chunks {
			ce.chunks[i] = Chunk{X: mat.DenseCopyOf(ch.X), Y: mat.DenseCopyOf(ch.Y)}
		}
		c.classes.ReplaceOrInsert(ce)
		return true
	})
	c.nx, c.ny, c.rows = s.nx, s.ny, s.rows
	return c
}
