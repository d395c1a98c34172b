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

// FaceVertex indexes into the mesh attribute arrays. TexCoord and Normal are -1 when absent.
type FaceVertex struct {
	Position int
	TexCoord int
	Normal   int
}

// MeshGroup is a named run of triangles sharing a material. Every three
// vertices form one triangle.
type MeshGroup struct {
	Name     string
	Material string
	Vertices []FaceVertex
}

// Mesh is a Wavefront OBJ model. Polygons are triangulated as fans.
// Material libraries (mtllib) are resolved against the resource directory.
type Mesh struct {
	resources.Base

	Positions        []mgl32.Vec3
	TexCoords        []mgl32.Vec2
	Normals          []mgl32.Vec3
	Groups           []MeshGroup
	MaterialLibs     []string
	MaterialLibPaths []string

	Min    mgl32.Vec3
	Max    mgl32.Vec3
	Center mgl32.Vec3
}

func NewMesh() *Mesh {
	return &Mesh{}
}

// TriangleCount returns the number of triangles across all groups.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, g := range m.Groups {
		n += len(g.Vertices) / 3
	}
	return n
}

func (m *Mesh) ProcessFile(absPath string) error {
	file, err := os.Open(absPath)
	if err != nil {
		return err
	}
	defer file.Close()

	out := &Mesh{}
	var current *MeshGroup
	group := func() *MeshGroup {
		if current == nil {
			out.Groups = append(out.Groups, MeshGroup{Name: "default"})
			current = &out.Groups[len(out.Groups)-1]
		}
		return current
	}

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		args := fields[1:]

		switch fields[0] {
		case "v":
			v, err := parseFloats(args, 3)
			if err != nil {
				return errors.Wrapf(err, "%s:%d: bad vertex", absPath, lineNo)
			}
			out.Positions = append(out.Positions, mgl32.Vec3{v[0], v[1], v[2]})
		case "vt":
			v, err := parseFloats(args, 2)
			if err != nil {
				return errors.Wrapf(err, "%s:%d: bad texture coordinate", absPath, lineNo)
			}
			out.TexCoords = append(out.TexCoords, mgl32.Vec2{v[0], v[1]})
		case "vn":
			v, err := parseFloats(args, 3)
			if err != nil {
				return errors.Wrapf(err, "%s:%d: bad normal", absPath, lineNo)
			}
			out.Normals = append(out.Normals, mgl32.Vec3{v[0], v[1], v[2]})
		case "f":
			if len(args) < 3 {
				return errors.Errorf("%s:%d: face needs at least 3 vertices", absPath, lineNo)
			}
			verts := make([]FaceVertex, len(args))
			for i, a := range args {
				fv, err := parseFaceVertex(a, len(out.Positions), len(out.TexCoords), len(out.Normals))
				if err != nil {
					return errors.Wrapf(err, "%s:%d", absPath, lineNo)
				}
				verts[i] = fv
			}
			g := group()
			for i := 1; i+1 < len(verts); i++ {
				g.Vertices = append(g.Vertices, verts[0], verts[i], verts[i+1])
			}
		case "o", "g":
			name := strings.Join(args, " ")
			if name == "" {
				name = "default"
			}
			material := ""
			if current != nil {
				material = current.Material
			}
			out.Groups = append(out.Groups, MeshGroup{Name: name, Material: material})
			current = &out.Groups[len(out.Groups)-1]
		case "usemtl":
			material := strings.Join(args, " ")
			g := group()
			if len(g.Vertices) > 0 && g.Material != material {
				out.Groups = append(out.Groups, MeshGroup{Name: g.Name, Material: material})
				current = &out.Groups[len(out.Groups)-1]
			} else {
				g.Material = material
			}
		case "mtllib":
			for _, lib := range args {
				out.MaterialLibs = append(out.MaterialLibs, lib)
				out.MaterialLibPaths = append(out.MaterialLibPaths, filepath.Join(m.Directory(), lib))
			}
		case "s", "l", "p":
			// smoothing groups, lines and points carry nothing we keep
		default:
			core.LogDebug("Unknown OBJ statement '%s' at %s:%d. Skipping...", fields[0], absPath, lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(out.Positions) == 0 {
		return errors.Errorf("%s: mesh has no vertices", absPath)
	}

	m.Positions = out.Positions
	m.TexCoords = out.TexCoords
	m.Normals = out.Normals
	m.Groups = dropEmptyGroups(out.Groups)
	m.MaterialLibs = out.MaterialLibs
	m.MaterialLibPaths = out.MaterialLibPaths
	m.computeExtents()
	return nil
}

func (m *Mesh) computeExtents() {
	lo, hi := m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < lo[i] {
				lo[i] = p[i]
			}
			if p[i] > hi[i] {
				hi[i] = p[i]
			}
		}
	}
	m.Min = lo
	m.Max = hi
	m.Center = lo.Add(hi).Mul(0.5)
}

// SaveToFile writes the mesh back as OBJ. Indices are written 1-based.
func (m *Mesh) SaveToFile(path string) error {
	if len(m.Positions) == 0 {
		return errors.Errorf("mesh '%s' has no vertices", m.Name())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "# %s\n", m.Name())
	for _, lib := range m.MaterialLibs {
		fmt.Fprintf(w, "mtllib %s\n", lib)
	}
	for _, p := range m.Positions {
		fmt.Fprintf(w, "v %s %s %s\n", formatFloat(p[0]), formatFloat(p[1]), formatFloat(p[2]))
	}
	for _, t := range m.TexCoords {
		fmt.Fprintf(w, "vt %s %s\n", formatFloat(t[0]), formatFloat(t[1]))
	}
	for _, n := range m.Normals {
		fmt.Fprintf(w, "vn %s %s %s\n", formatFloat(n[0]), formatFloat(n[1]), formatFloat(n[2]))
	}
	for _, g := range m.Groups {
		fmt.Fprintf(w, "g %s\n", g.Name)
		if g.Material != "" {
			fmt.Fprintf(w, "usemtl %s\n", g.Material)
		}
		for i := 0; i+2 < len(g.Vertices); i += 3 {
			fmt.Fprintf(w, "f %s %s %s\n",
				formatFaceVertex(g.Vertices[i]), formatFaceVertex(g.Vertices[i+1]), formatFaceVertex(g.Vertices[i+2]))
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func dropEmptyGroups(groups []MeshGroup) []MeshGroup {
	out := groups[:0]
	for _, g := range groups {
		if len(g.Vertices) > 0 {
			out = append(out, g)
		}
	}
	return out
}

func parseFloats(args []string, n int) ([]float32, error) {
	if len(args) < n {
		return nil, errors.Errorf("expected %d values, got %d", n, len(args))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseFaceVertex parses "p", "p/t", "p//n" or "p/t/n". OBJ indices are
// 1-based; negative indices count back from the end of the list read so far.
func parseFaceVertex(s string, nPos, nTex, nNorm int) (FaceVertex, error) {
	fv := FaceVertex{TexCoord: -1, Normal: -1}
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return fv, errors.Errorf("bad face vertex %q", s)
	}

	var err error
	if fv.Position, err = resolveIndex(parts[0], nPos); err != nil {
		return fv, errors.Wrapf(err, "bad position index in %q", s)
	}
	if len(parts) > 1 && parts[1] != "" {
		if fv.TexCoord, err = resolveIndex(parts[1], nTex); err != nil {
			return fv, errors.Wrapf(err, "bad texture index in %q", s)
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if fv.Normal, err = resolveIndex(parts[2], nNorm); err != nil {
			return fv, errors.Wrapf(err, "bad normal index in %q", s)
		}
	}
	return fv, nil
}

func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i = count + i
	default:
		return 0, errors.New("index 0 is not valid")
	}
	if i < 0 || i >= count {
		return 0, errors.Errorf("index out of range (have %d)", count)
	}
	return i, nil
}

func formatFaceVertex(fv FaceVertex) string {
	s := strconv.Itoa(fv.Position + 1)
	switch {
	case fv.TexCoord >= 0 && fv.Normal >= 0:
		s += "/" + strconv.Itoa(fv.TexCoord+1) + "/" + strconv.Itoa(fv.Normal+1)
	case fv.TexCoord >= 0:
		s += "/" + strconv.Itoa(fv.TexCoord+1)
	case fv.Normal >= 0:
		s += "//" + strconv.Itoa(fv.Normal+1)
	}
	return s
}
