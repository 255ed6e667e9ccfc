package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	cfg "imaginify/src/configuration"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/admin/search"
)

// Searcher resolves a CDN search expression to the matching public ids.
type Searcher interface {
	Search(ctx context.Context, expression string) ([]string, error)
}

// CDN describes renders for the hosted transformation service and queries
// its search index. The service renders the pixels; we only describe what
// to render.
type CDN struct {
	cld     *cloudinary.Cloudinary
	folder  string
	timeout time.Duration
}

const searchMaxResults = 500

func NewCDN(props cfg.CDNProperties) (*CDN, error) {
	cld, err := cloudinary.NewFromParams(props.CloudName, props.APIKey, props.APISecret)
	if err != nil {
		return nil, fmt.Errorf("can not configure cdn: %w", err)
	}
	cld.Config.URL.Secure = true
	cld.Config.URL.ForceVersion = false
	cld.Config.URL.Analytics = false
	if props.APIHost != "" {
		cld.Config.API.UploadPrefix = strings.TrimRight(props.APIHost, "/")
	}
	return &CDN{cld: cld, folder: props.Folder, timeout: props.Timeout}, nil
}

func (c *CDN) Folder() string { return c.folder }

// TransformationURL renders publicID with the effects described by config.
func (c *CDN) TransformationURL(publicID string, width, height int, config map[string]any) (string, error) {
	asset, err := c.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("can not build cdn asset %q: %w", publicID, err)
	}
	asset.Transformation = transformation(width, height, config)
	result, err := asset.String()
	if err != nil {
		return "", fmt.Errorf("can not render cdn url for %q: %w", publicID, err)
	}
	return result, nil
}

// transformation renders the chained transformation, one component per
// effect, always finishing with automatic format and quality.
func transformation(width, height int, config map[string]any) string {
	segments := []string{}
	if truthy(config["fillBackground"]) {
		segments = append(segments, resize([]string{"b_gen_fill", "c_pad"}, width, height))
	} else if width > 0 || height > 0 {
		segments = append(segments, resize([]string{"c_limit"}, width, height))
	}
	if truthy(config["restore"]) {
		segments = append(segments, "e_gen_restore")
	}
	if truthy(config["removeBackground"]) {
		segments = append(segments, "e_background_removal")
	}
	if remove, ok := config["remove"].(map[string]any); ok {
		if effect := generativeEffect("e_gen_remove", remove, "prompt", "multiple", "removeShadow"); effect != "" {
			segments = append(segments, effect)
		}
	}
	if recolor, ok := config["recolor"].(map[string]any); ok {
		if effect := generativeEffect("e_gen_recolor", recolor, "prompt", "to", "multiple"); effect != "" {
			segments = append(segments, effect)
		}
	}
	segments = append(segments, "f_auto", "q_auto")
	return strings.Join(segments, "/")
}

func resize(params []string, width, height int) string {
	if width > 0 {
		params = append(params, fmt.Sprintf("w_%d", width))
	}
	if height > 0 {
		params = append(params, fmt.Sprintf("h_%d", height))
	}
	return strings.Join(params, ",")
}

var effectParams = map[string]string{
	"prompt":       "prompt",
	"to":           "to-color",
	"multiple":     "multiple",
	"removeShadow": "remove-shadow",
}

// generativeEffect renders e.g. e_gen_recolor:prompt_car;to-color_red;multiple_true.
// An effect without a prompt is dropped.
func generativeEffect(name string, params map[string]any, keys ...string) string {
	prompt, _ := params["prompt"].(string)
	if strings.TrimSpace(prompt) == "" {
		return ""
	}
	parts := []string{}
	for _, key := range keys {
		switch v := params[key].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				parts = append(parts, effectParams[key]+"_"+url.PathEscape(strings.TrimPrefix(v, "#")))
			}
		case bool:
			if v {
				parts = append(parts, effectParams[key]+"_true")
			}
		}
	}
	return name + ":" + strings.Join(parts, ";")
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// Search asks the admin search API for assets matching expression.
func (c *CDN) Search(ctx context.Context, expression string) ([]string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	res, err := c.cld.Admin.Search(ctx, search.Query{Expression: expression, MaxResults: searchMaxResults})
	if err != nil {
		return nil, fmt.Errorf("can not search cdn: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("can not search cdn: %s", res.Error.Message)
	}
	ids := make([]string, 0, len(res.Assets))
	for _, a := range res.Assets {
		ids = append(ids, a.PublicID)
	}
	return ids, nil
}
