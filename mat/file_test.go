package mat

import (
	"bytes"
	stdbinary "encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-mat/internal/element"
	"github.com/robert-malhotra/go-mat/internal/linkmeta"
)

func TestDecodeFileWithoutSubsystem(t *testing.T) {
	require := require.New(t)

	data := buildFile([][]byte{fxDouble("x", []int32{1, 3}, 1, 2, 3)}, nil)
	f, err := Decode(data)
	require.NoError(err)

	require.Nil(f.Subsystem())
	require.Len(f.Vars(), 1)

	v, ok := f.Var("x")
	require.True(ok)
	require.Equal([]float64{1, 2, 3}, v.(*NumericArray).Data)
}

func TestDecodeFileObjectVariable(t *testing.T) {
	require := require.New(t)

	fx := &ssFixture{}
	classID := fx.addClass("duration")
	objID := fx.addObject(classID, []linkmeta.FieldDescriptor{
		fx.contentField("millis", fxDouble("", []int32{1, 1}, 2500)),
		fx.contentField("fmt", fxChar("s")),
	})

	vars := [][]byte{
		fxDouble("plain", []int32{1, 1}, 9),
		fxOpaque("d", "MCOS", "duration", fxRef(classID, objID)),
	}
	f, err := Decode(buildFile(vars, fx.build()))
	require.NoError(err)

	require.NotNil(f.Subsystem())
	require.Len(f.Vars(), 2)

	v, ok := f.Var("d")
	require.True(ok)
	d, ok := v.(*Duration)
	require.True(ok, "expected *Duration, got %T", v)
	require.Equal([]float64{2500}, d.Millis)
}

func TestDecodeFileEnumeration(t *testing.T) {
	require := require.New(t)

	fx := &ssFixture{}
	classID := fx.addClass("Color")
	red := fx.addObject(classID, nil)
	green := fx.addObject(classID, nil)

	classIdx := fx.nameIndex("Color")
	redIdx := fx.nameIndex("red")
	greenIdx := fx.nameIndex("green")

	enumMeta := fxStruct("", []string{
		"EnumerationInstanceTag", "ClassName", "ValueNames", "ValueIndices", "Values",
	},
		fxUint32Matrix([]int32{1, 1}, refSentinel),
		fxUint32Matrix([]int32{1, 1}, classIdx),
		fxUint32Matrix([]int32{2, 1}, redIdx, greenIdx),
		fxUint32Matrix([]int32{3, 1}, 0, 1, 0),
		fxCell([]int32{2, 1}, fxRef(classID, red), fxRef(classID, green)),
	)
	vars := [][]byte{
		fxOpaque("c", "MCOS", "Color", enumMeta),
	}
	f, err := Decode(buildFile(vars, fx.build()))
	require.NoError(err)

	v, ok := f.Var("c")
	require.True(ok)
	e, ok := v.(*Enumeration)
	require.True(ok, "expected *Enumeration, got %T", v)

	require.Equal("Color", e.Class)
	require.Equal([]string{"red", "green"}, e.ValueNames)
	require.Equal([]int{3, 1}, e.Dims)
	require.Len(e.Values, 3)

	first := e.Values[0].(*Object)
	second := e.Values[1].(*Object)
	require.Equal("Color", first.Class)
	require.Same(e.Values[0], e.Values[2], "repeated indices share the member object")
	require.NotSame(first, second)
}

func TestDecodeFileObjectWithoutSubsystem(t *testing.T) {
	require := require.New(t)

	vars := [][]byte{
		fxOpaque("d", "MCOS", "duration", fxRef(1, 1)),
	}
	f, err := Decode(buildFile(vars, nil))
	require.NoError(err)

	// The variable survives as its raw metadata, with a diagnostic.
	_, ok := f.Var("d")
	require.True(ok)
	require.NotEmpty(f.Diagnostics())
	require.Equal(DiagDanglingReference, f.Diagnostics()[0].Kind)
}

func TestDecodeFileCompressedVariable(t *testing.T) {
	require := require.New(t)

	plain := fxDouble("z", []int32{1, 1}, 5)
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	zw.Write(plain)
	zw.Close()

	var el bytes.Buffer
	stdbinary.Write(&el, stdbinary.LittleEndian, uint32(element.MiCompressed))
	stdbinary.Write(&el, stdbinary.LittleEndian, uint32(z.Len()))
	el.Write(z.Bytes())

	f, err := Decode(buildFile([][]byte{el.Bytes()}, nil))
	require.NoError(err)

	v, ok := f.Var("z")
	require.True(ok)
	require.Equal([]float64{5}, v.(*NumericArray).Data)
}

func TestDecodeNotMAT(t *testing.T) {
	_, err := Decode([]byte("not a mat file"))
	require.ErrorIs(t, err, ErrNotMAT)
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	data := buildFile([][]byte{fxDouble("x", []int32{1, 1}, 1)}, nil)
	// 0x0200 marks the HDF5-based container format.
	stdbinary.LittleEndian.PutUint16(data[124:], 0x0200)

	_, err := Decode(data)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestOpenRoundTrip(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "fixture.mat")
	data := buildFile([][]byte{fxDouble("x", []int32{1, 1}, 11)}, nil)
	require.NoError(os.WriteFile(path, data, 0o644))

	f, err := Open(path)
	require.NoError(err)
	v, ok := f.Var("x")
	require.True(ok)
	require.Equal([]float64{11}, v.(*NumericArray).Data)

	_, err = Open(filepath.Join(t.TempDir(), "missing.mat"))
	require.Error(err)
}

func TestFileHeaderText(t *testing.T) {
	require := require.New(t)

	f, err := Decode(buildFile(nil, nil))
	require.NoError(err)
	require.Contains(f.Header(), "MATLAB 5.0 MAT-file")
	require.Equal(uint16(0x0100), f.Version())
}
