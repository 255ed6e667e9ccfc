package app

import (
	"fmt"
	"sort"
)

type TransformationType string

const (
	Restore          TransformationType = "restore"
	RemoveBackground TransformationType = "removeBackground"
	Fill             TransformationType = "fill"
	RemoveObject     TransformationType = "remove"
	Recolor          TransformationType = "recolor"
)

type (
	Transformation struct {
		Type     TransformationType `json:"type"`
		Title    string             `json:"title"`
		SubTitle string             `json:"subTitle"`
		Icon     string             `json:"icon"`
		Config   map[string]any     `json:"config"`
	}

	AspectRatio struct {
		Label  string `json:"label"`
		Ratio  string `json:"aspectRatio"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}
)

var transformations = map[TransformationType]Transformation{
	Restore: {
		Type:     Restore,
		Title:    "Restore Image",
		SubTitle: "Refine images by removing noise and imperfections",
		Icon:     "image.svg",
		Config:   map[string]any{"restore": true},
	},
	RemoveBackground: {
		Type:     RemoveBackground,
		Title:    "Background Remove",
		SubTitle: "Removes the background of the image using AI",
		Icon:     "camera.svg",
		Config:   map[string]any{"removeBackground": true},
	},
	Fill: {
		Type:     Fill,
		Title:    "Generative Fill",
		SubTitle: "Enhance an image's dimensions using AI outpainting",
		Icon:     "stars.svg",
		Config:   map[string]any{"fillBackground": true},
	},
	RemoveObject: {
		Type:     RemoveObject,
		Title:    "Object Remove",
		SubTitle: "Identify and eliminate objects from images",
		Icon:     "scan.svg",
		Config: map[string]any{
			"remove": map[string]any{"prompt": "", "removeShadow": true, "multiple": true},
		},
	},
	Recolor: {
		Type:     Recolor,
		Title:    "Object Recolor",
		SubTitle: "Identify and recolor objects from the image",
		Icon:     "filter.svg",
		Config: map[string]any{
			"recolor": map[string]any{"prompt": "", "to": "", "multiple": true},
		},
	},
}

var aspectRatios = map[string]AspectRatio{
	"1:1":  {Label: "Square (1:1)", Ratio: "1:1", Width: 1000, Height: 1000},
	"3:4":  {Label: "Standard Portrait (3:4)", Ratio: "3:4", Width: 1000, Height: 1334},
	"9:16": {Label: "Phone Portrait (9:16)", Ratio: "9:16", Width: 1000, Height: 1778},
}

// LookupTransformation returns the catalog entry with a private copy of its
// default config.
func LookupTransformation(t TransformationType) (Transformation, error) {
	tr, ok := transformations[t]
	if !ok {
		return Transformation{}, fmt.Errorf("%w: %q", ErrUnknownTransformation, t)
	}
	tr.Config = DeepMerge(nil, tr.Config)
	return tr, nil
}

// Transformations lists the catalog in a stable order.
func Transformations() []Transformation {
	result := make([]Transformation, 0, len(transformations))
	for _, t := range []TransformationType{Restore, RemoveBackground, Fill, RemoveObject, Recolor} {
		tr, _ := LookupTransformation(t)
		result = append(result, tr)
	}
	return result
}

func LookupAspectRatio(key string) (AspectRatio, bool) {
	ar, ok := aspectRatios[key]
	return ar, ok
}

func AspectRatios() []AspectRatio {
	result := make([]AspectRatio, 0, len(aspectRatios))
	for _, ar := range aspectRatios {
		result = append(result, ar)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Height < result[j].Height })
	return result
}

// DeepMerge returns a new map holding base overlaid with override. Nested
// maps are merged recursively; any other override value replaces the base.
// Neither argument is modified.
func DeepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		if nested, ok := v.(map[string]any); ok {
			out[k] = DeepMerge(nil, nested)
			continue
		}
		out[k] = v
	}
	for k, v := range override {
		nested, ok := v.(map[string]any)
		if !ok {
			out[k] = v
			continue
		}
		if existing, ok := out[k].(map[string]any); ok {
			out[k] = DeepMerge(existing, nested)
		} else {
			out[k] = DeepMerge(nil, nested)
		}
	}
	return out
}
