package phones

import (
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Inventory is the sorted phoneme set that fixes class indices.
type Inventory struct {
	labels []string
	index  map[string]int
}

func NewInventory(labels []string) *Inventory {
	var sorted = append([]string(nil), labels...)
	sort.Strings(sorted)
	var index = make(map[string]int, len(sorted))
	for i, label := range sorted {
		// duplicates map to their first position
		if _, found := index[label]; !found {
			index[label] = i
		}
	}
	return &Inventory{
		labels: sorted,
		index:  index,
	}
}

// Load reads one phoneme per line. Surrounding whitespace is trimmed,
// blank lines are skipped.
func Load(path string) (*Inventory, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrConfiguration, "phoneme list: %v", err)
	}
	defer file.Close()

	var labels []string
	var scanner = bufio.NewScanner(file)
	for scanner.Scan() {
		var label = strings.TrimSpace(scanner.Text())
		if label != "" {
			labels = append(labels, label)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(domain.ErrConfiguration, "phoneme list %v: %v", path, err)
	}
	if len(labels) == 0 {
		return nil, errors.Wrapf(domain.ErrConfiguration, "phoneme list %v is empty", path)
	}
	return NewInventory(labels), nil
}

func (inv *Inventory) Size() int { return len(inv.labels) }

func (inv *Inventory) Labels() []string { return inv.labels }

func (inv *Inventory) Label(index int) string { return inv.labels[index] }

func (inv *Inventory) Index(label string) (int, error) {
	var i, found = inv.index[label]
	if !found {
		return 0, errors.Wrapf(domain.ErrLookup, "phoneme %q is not in inventory", label)
	}
	return i, nil
}

// OneHot expands class indices against the inventory size.
func (inv *Inventory) OneHot(indices []int) domain.Tensor {
	return OneHot(indices, inv.Size())
}

func OneHot(indices []int, classes int) domain.Tensor {
	var t = domain.NewTensor(len(indices), classes)
	for row, index := range indices {
		t.Data[row*classes+index] = 1
	}
	return t
}

// ArgMax returns the position of the largest value of each row.
func ArgMax(t domain.Tensor) []int {
	var res = make([]int, t.Rows())
	var buf = make([]float64, t.Width())
	for i := range res {
		for j, v := range t.Row(i) {
			buf[j] = float64(v)
		}
		res[i] = floats.MaxIdx(buf)
	}
	return res
}
