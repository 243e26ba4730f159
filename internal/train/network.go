package train

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/ChizhovVadim/phonetrain/internal/ml"
	"github.com/pkg/errors"
)

type Topology struct {
	Inputs        uint32
	Outputs       uint32
	HiddenNeurons []uint32
}

func NewTopology(inputs, outputs int, hiddenNeurons []int) Topology {
	var hidden = make([]uint32, len(hiddenNeurons))
	for i, n := range hiddenNeurons {
		hidden[i] = uint32(n)
	}
	return Topology{
		Inputs:        uint32(inputs),
		Outputs:       uint32(outputs),
		HiddenNeurons: hidden,
	}
}

func (t *Topology) LayerSize() int {
	return len(t.HiddenNeurons) + 1
}

// Binary layout of a model file:
// - little-endian, matrices column-major, values float32
// - magic/version, 4 bytes: 'P', 'H', 1 (major), 0 (minor)
// - uint32 input size, uint32 output size, uint32 hidden layer count
// - uint32 size of each hidden layer
// - per layer: all weights, then all biases
func (m *Model) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	var w = bufio.NewWriter(f)
	var t = m.topology

	var buf = make([]byte, 4+3*4+4*len(t.HiddenNeurons))
	copy(buf, []byte{'P', 'H', 1, 0})
	binary.LittleEndian.PutUint32(buf[4:], t.Inputs)
	binary.LittleEndian.PutUint32(buf[8:], t.Outputs)
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(t.HiddenNeurons)))
	for i, n := range t.HiddenNeurons {
		binary.LittleEndian.PutUint32(buf[16+4*i:], n)
	}
	if _, err = w.Write(buf); err != nil {
		return errors.WithStack(err)
	}

	for _, layer := range m.layers {
		if err = writeSlice(w, layer.weights.Data); err != nil {
			return err
		}
		if err = writeSlice(w, layer.biases.Data); err != nil {
			return err
		}
	}
	if err = w.Flush(); err != nil {
		return errors.WithStack(err)
	}
	return f.Close()
}

func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrConfiguration, "model: %v", err)
	}
	defer f.Close()
	var r = bufio.NewReader(f)

	var header = make([]byte, 16)
	if _, err = io.ReadFull(r, header); err != nil {
		return nil, errors.Wrapf(domain.ErrConfiguration, "model %v: %v", path, err)
	}
	if header[0] != 'P' || header[1] != 'H' {
		return nil, errors.Wrapf(domain.ErrConfiguration, "model %v: magic word does not match", path)
	}
	if header[2] != 1 || header[3] != 0 {
		return nil, errors.Wrapf(domain.ErrConfiguration, "model %v: version %v.%v is not supported", path, header[2], header[3])
	}
	var inputs = binary.LittleEndian.Uint32(header[4:])
	var outputs = binary.LittleEndian.Uint32(header[8:])
	var hiddenCount = binary.LittleEndian.Uint32(header[12:])
	if hiddenCount > maxHiddenLayers {
		return nil, errors.Wrapf(domain.ErrConfiguration, "model %v: %v hidden layers", path, hiddenCount)
	}

	var buf = make([]byte, int(hiddenCount)*4)
	if _, err = io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrapf(domain.ErrConfiguration, "model %v: %v", path, err)
	}
	var topology = Topology{
		Inputs:        inputs,
		Outputs:       outputs,
		HiddenNeurons: make([]uint32, hiddenCount),
	}
	for i := range topology.HiddenNeurons {
		topology.HiddenNeurons[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	if err = checkFileSize(f, topology); err != nil {
		return nil, errors.WithMessagef(err, "model %v", path)
	}

	var layers = make([]*Layer, topology.LayerSize())
	var inputSize = int(inputs)
	for i := range layers {
		var outputSize = int(outputs)
		var activation ml.IActivationFn = &ml.IdentityActivation{}
		if i < len(topology.HiddenNeurons) {
			outputSize = int(topology.HiddenNeurons[i])
			activation = &ml.ReLuActivation{}
		}
		var layer = NewLayer(inputSize, outputSize, activation)
		if err = readSlice(r, layer.weights.Data); err != nil {
			return nil, errors.Wrapf(domain.ErrConfiguration, "model %v: %v", path, err)
		}
		if err = readSlice(r, layer.biases.Data); err != nil {
			return nil, errors.Wrapf(domain.ErrConfiguration, "model %v: %v", path, err)
		}
		layers[i] = layer
		inputSize = outputSize
	}
	return newModel(topology, layers), nil
}

const maxHiddenLayers = 64

// checkFileSize rejects a header whose topology does not match the file length,
// before any weight matrix is allocated.
func checkFileSize(f *os.File, t Topology) error {
	info, err := f.Stat()
	if err != nil {
		return errors.WithStack(err)
	}
	var sizes = make([]uint64, 0, len(t.HiddenNeurons)+2)
	sizes = append(sizes, uint64(t.Inputs))
	for _, n := range t.HiddenNeurons {
		sizes = append(sizes, uint64(n))
	}
	sizes = append(sizes, uint64(t.Outputs))
	var params uint64
	for i := 1; i < len(sizes); i++ {
		if sizes[i-1] == 0 || sizes[i] == 0 {
			return errors.Wrapf(domain.ErrConfiguration, "empty layer in topology %v", sizes)
		}
		params += (sizes[i-1] + 1) * sizes[i]
	}
	var want = 16 + 4*uint64(len(t.HiddenNeurons)) + 4*params
	if uint64(info.Size()) != want {
		return errors.Wrapf(domain.ErrConfiguration,
			"file has %v bytes, topology %v needs %v", info.Size(), sizes, want)
	}
	return nil
}

func writeSlice(w io.Writer, data []float64) error {
	var buf = make([]byte, 4)
	for j := range data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(data[j])))
		if _, err := w.Write(buf); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func readSlice(r io.Reader, data []float64) error {
	var buf = make([]byte, 4)
	for j := range data {
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		data[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
	}
	return nil
}
