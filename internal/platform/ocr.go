package platform

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strings"
)

// TesseractRecognizer turns a captured band into text by piping it
// through the tesseract CLI. Shelling out keeps the build cgo-free; the
// band is tiny so the process spawn dominates, which the recognition
// throttle already accounts for.
type TesseractRecognizer struct {
	Binary string // defaults to "tesseract" on PATH
	Lang   string // tesseract language code, e.g. "eng"
}

func (t *TesseractRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode band: %w", err)
	}

	bin := t.Binary
	if bin == "" {
		bin = "tesseract"
	}
	// psm 7: treat the band as a single text line.
	args := []string{"stdin", "stdout", "--psm", "7"}
	if t.Lang != "" {
		args = append(args, "-l", t.Lang)
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = &buf
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// TesseractLang maps a client locale to the tesseract language code.
// Unknown locales fall back to English, which still reads Latin names.
func TesseractLang(locale string) string {
	switch locale {
	case "ja_JP":
		return "jpn"
	case "ko_KR":
		return "kor"
	case "zh_CN":
		return "chi_sim"
	case "zh_TW":
		return "chi_tra"
	case "ru_RU":
		return "rus"
	case "el_GR":
		return "ell"
	case "de_DE":
		return "deu"
	case "es_ES", "es_MX":
		return "spa"
	case "fr_FR":
		return "fra"
	case "it_IT":
		return "ita"
	case "pl_PL":
		return "pol"
	case "pt_BR":
		return "por"
	case "tr_TR":
		return "tur"
	case "hu_HU":
		return "hun"
	case "cs_CZ":
		return "ces"
	case "ro_RO":
		return "ron"
	default:
		return "eng"
	}
}
