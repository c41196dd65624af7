package reconcile

import (
	"github.com/yourorg/bda-pipeline/internal/table"
)

// Modality is the closed set of segment content kinds plus an explicit
// variant for anything outside it. Unrecognized segments pass through with
// no modality-specific extraction rather than being dropped.
type Modality int

const (
	ModalityUnrecognized Modality = iota
	ModalityDocument
	ModalityImage
	ModalityVideo
	ModalityAudio
)

func ParseModality(tag string) Modality {
	switch tag {
	case "DOCUMENT":
		return ModalityDocument
	case "IMAGE":
		return ModalityImage
	case "VIDEO":
		return ModalityVideo
	case "AUDIO":
		return ModalityAudio
	default:
		return ModalityUnrecognized
	}
}

func (m Modality) String() string {
	switch m {
	case ModalityDocument:
		return "DOCUMENT"
	case ModalityImage:
		return "IMAGE"
	case ModalityVideo:
		return "VIDEO"
	case ModalityAudio:
		return "AUDIO"
	default:
		return "UNRECOGNIZED"
	}
}

// extractor pulls the modality-specific fields of a standard-output detail
// document into normalized columns.
type extractor func(doc map[string]any) table.Record

// extractors keys the per-modality field extraction. DOCUMENT and AUDIO have
// no extraction defined; their rows carry manifest columns only.
var extractors = map[Modality]extractor{
	ModalityImage: extractImage,
	ModalityVideo: extractVideo,
}

func extractImage(doc map[string]any) table.Record {
	img, ok := doc["image"].(map[string]any)
	if !ok {
		return nil
	}
	rec := table.Record{}
	if v, ok := img["summary"]; ok {
		rec["summary"] = v
	}
	if v, ok := img["text_words"]; ok {
		rec["extractedTextWords"] = v
	}
	if v, ok := img["text_lines"]; ok {
		rec["extractedTextLines"] = v
	}
	return rec
}

func extractVideo(doc map[string]any) table.Record {
	vid, ok := doc["video"].(map[string]any)
	if !ok {
		return nil
	}
	rec := table.Record{}
	if v, ok := vid["summary"]; ok {
		rec["summary"] = v
	}
	// Transcript text sits two levels down: transcript.representation.text.
	if v, ok := dig(vid, "transcript", "representation", "text"); ok {
		rec["extractedTranscript"] = v
	}
	return rec
}

// dig walks nested objects by key, reporting whether the full path resolved.
func dig(m map[string]any, keys ...string) (any, bool) {
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
