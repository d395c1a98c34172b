package loaders

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/rezcache/engine/core"
	"github.com/spaghettifunk/rezcache/engine/resources"
)

// Material is a surface description loaded from a .amt file:
//
//	# comment
//	name = stone
//	shader = Builtin.MaterialShader
//	diffuse_colour = 1.0 1.0 1.0 1.0
//	shininess = 32.0
//	diffuse_map_name = stone_diffuse.png
//	autorelease = true
//
// Texture map names are resolved against the resource directory.
type Material struct {
	resources.Base

	MaterialName    string
	ShaderName      string
	AutoRelease     bool
	DiffuseColour   mgl32.Vec4
	Shininess       float32
	DiffuseMapName  string
	SpecularMapName string
	NormalMapName   string
}

func NewMaterial() *Material {
	return &Material{}
}

func (m *Material) ProcessFile(absPath string) error {
	cfg, err := parseAMTFile(absPath)
	if err != nil {
		return err
	}
	m.MaterialName = cfg.MaterialName
	m.ShaderName = cfg.ShaderName
	m.AutoRelease = cfg.AutoRelease
	m.DiffuseColour = cfg.DiffuseColour
	m.Shininess = cfg.Shininess
	m.DiffuseMapName = cfg.DiffuseMapName
	m.SpecularMapName = cfg.SpecularMapName
	m.NormalMapName = cfg.NormalMapName
	return nil
}

// DiffuseMapPath returns the absolute path of the diffuse map, or "" if the material has none.
func (m *Material) DiffuseMapPath() string {
	return m.mapPath(m.DiffuseMapName)
}

func (m *Material) SpecularMapPath() string {
	return m.mapPath(m.SpecularMapName)
}

func (m *Material) NormalMapPath() string {
	return m.mapPath(m.NormalMapName)
}

func (m *Material) mapPath(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.Directory(), name)
}

func (m *Material) SaveToFile(path string) error {
	if err := validateMaterial(m); err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "name = %s\n", m.MaterialName)
	fmt.Fprintf(&b, "shader = %s\n", m.ShaderName)
	fmt.Fprintf(&b, "diffuse_colour = %s %s %s %s\n",
		formatFloat(m.DiffuseColour[0]), formatFloat(m.DiffuseColour[1]),
		formatFloat(m.DiffuseColour[2]), formatFloat(m.DiffuseColour[3]))
	fmt.Fprintf(&b, "shininess = %s\n", formatFloat(m.Shininess))
	if m.DiffuseMapName != "" {
		fmt.Fprintf(&b, "diffuse_map_name = %s\n", m.DiffuseMapName)
	}
	if m.SpecularMapName != "" {
		fmt.Fprintf(&b, "specular_map_name = %s\n", m.SpecularMapName)
	}
	if m.NormalMapName != "" {
		fmt.Fprintf(&b, "normal_map_name = %s\n", m.NormalMapName)
	}
	fmt.Fprintf(&b, "autorelease = %t\n", m.AutoRelease)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

func parseAMTFile(filename string) (*Material, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	materialConfig := &Material{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		// Split key-value pairs by the first "=" sign
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			core.LogWarn("Skipping invalid line: %s", line)
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "name":
			materialConfig.MaterialName = value
		case "shader":
			materialConfig.ShaderName = value
		case "diffuse_colour":
			colourValues := strings.Fields(value)
			if len(colourValues) != 4 {
				return nil, errors.Errorf("invalid diffuse_colour, expected 4 values: %s", line)
			}
			for i, v := range colourValues {
				f, err := strconv.ParseFloat(v, 32)
				if err != nil {
					return nil, errors.Errorf("invalid diffuse_colour value: %s", v)
				}
				materialConfig.DiffuseColour[i] = float32(f)
			}
		case "shininess":
			shininess, err := strconv.ParseFloat(value, 32)
			if err != nil {
				return nil, errors.Errorf("invalid shininess value: %s", value)
			}
			materialConfig.Shininess = float32(shininess)
		case "diffuse_map_name":
			materialConfig.DiffuseMapName = value
		case "specular_map_name":
			materialConfig.SpecularMapName = value
		case "normal_map_name":
			materialConfig.NormalMapName = value
		case "autorelease":
			autoRelease, err := strconv.ParseBool(value)
			if err != nil {
				return nil, errors.Errorf("invalid autorelease value: %s", value)
			}
			materialConfig.AutoRelease = autoRelease
		default:
			core.LogWarn("Unknown key '%s' found in file '%s'. Skipping...", key, filename)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := validateMaterial(materialConfig); err != nil {
		return nil, err
	}
	return materialConfig, nil
}

func validateMaterial(material *Material) error {
	if material.MaterialName == "" {
		return errors.Errorf("material name is required")
	}

	if material.ShaderName == "" {
		return errors.Errorf("shader name is required")
	}

	for _, c := range material.DiffuseColour {
		if c < 0.0 || c > 1.0 {
			return errors.Errorf("diffuse_colour values must be between 0.0 and 1.0")
		}
	}

	if material.Shininess < 0 {
		return errors.Errorf("shininess must be a non-negative value")
	}
	return nil
}
