package export

import (
	"patternforge/internal/models"
)

// Encode serializes the mesh in the requested format.
func Encode(m *models.Mesh, format models.ExportFormat) (*models.ExportArtifact, error) {
	var data []byte
	var err error
	switch format {
	case models.FormatSTLBinary:
		data, err = EncodeSTLBinary(m)
	case models.FormatSTLASCII:
		data, err = EncodeSTLASCII(m)
	case models.FormatOBJ:
		data, err = EncodeOBJ(m)
	case models.FormatGLTF:
		data, err = EncodeGLTF(m)
	case models.FormatGLB:
		data, err = EncodeGLB(m)
	default:
		return nil, models.NewInputError("format", "unknown export format %q", string(format))
	}
	if err != nil {
		return nil, err
	}
	return &models.ExportArtifact{Format: format, Data: data}, nil
}

// Decode parses an artifact back into a mesh. Decoded meshes carry
// recomputed bounds, and normals when the format does not store them.
func Decode(a *models.ExportArtifact) (*models.Mesh, error) {
	if a == nil || len(a.Data) == 0 {
		return nil, models.NewInputError("artifact", "empty artifact")
	}
	switch a.Format {
	case models.FormatSTLBinary:
		return DecodeSTLBinary(a.Data)
	case models.FormatSTLASCII:
		return DecodeSTLASCII(a.Data)
	case models.FormatOBJ:
		return DecodeOBJ(a.Data)
	case models.FormatGLTF:
		return DecodeGLTF(a.Data)
	case models.FormatGLB:
		return DecodeGLB(a.Data)
	default:
		return nil, models.NewInputError("format", "unknown export format %q", string(a.Format))
	}
}

// FormatForExtension maps a file extension (with or without the dot) to
// an export format. The .stl extension means binary STL.
func FormatForExtension(ext string) (models.ExportFormat, error) {
	switch ext {
	case "stl", ".stl":
		return models.FormatSTLBinary, nil
	case "obj", ".obj":
		return models.FormatOBJ, nil
	case "gltf", ".gltf":
		return models.FormatGLTF, nil
	case "glb", ".glb":
		return models.FormatGLB, nil
	default:
		return "", models.NewInputError("format", "no export format for extension %q", ext)
	}
}
