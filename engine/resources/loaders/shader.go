package loaders

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/rezcache/engine/resources"
)

// SPIR-V module magic number, little endian.
const spirvMagic uint32 = 0x07230203

// Shader is a compiled SPIR-V module.
type Shader struct {
	resources.Base

	Bytecode []uint32
	// SPIR-V version the module targets, as major.minor.
	VersionMajor uint8
	VersionMinor uint8
}

func NewShader() *Shader {
	return &Shader{}
}

func (s *Shader) ProcessFile(absPath string) error {
	buf, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}
	if len(buf) < 20 || len(buf)%4 != 0 {
		return errors.Errorf("shader %s: SPIR-V size %d is not a positive multiple of 4", absPath, len(buf))
	}

	code := bytesToBytecode(buf)
	if code[0] != spirvMagic {
		return errors.Errorf("shader %s: bad SPIR-V magic 0x%08x", absPath, code[0])
	}

	s.Bytecode = code
	s.VersionMajor = uint8(code[1] >> 16)
	s.VersionMinor = uint8(code[1] >> 8)
	return nil
}

func (s *Shader) SaveToFile(path string) error {
	if len(s.Bytecode) == 0 {
		return errors.Errorf("shader '%s' has no bytecode", s.Name())
	}
	buf := make([]byte, len(s.Bytecode)*4)
	for i, word := range s.Bytecode {
		binary.LittleEndian.PutUint32(buf[i*4:], word)
	}
	return os.WriteFile(path, buf, 0o644)
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}
