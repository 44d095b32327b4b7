package manifest

import "fmt"

// UnmarshalTOML accepts both `name = "1.0"` and the table form.
func (d *Dependency) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		*d = Dependency{Version: v}
		return nil
	case map[string]any:
		var out Dependency
		var err error
		fields := map[string]*string{
			"version":  &out.Version,
			"path":     &out.Path,
			"git":      &out.Git,
			"branch":   &out.Branch,
			"tag":      &out.Tag,
			"rev":      &out.Rev,
			"registry": &out.Registry,
			"package":  &out.Package,
		}
		for key, dst := range fields {
			if *dst, err = stringField(v, key); err != nil {
				return err
			}
		}
		for _, key := range []string{"default-features", "default_features"} {
			raw, ok := v[key]
			if !ok {
				continue
			}
			b, ok := raw.(bool)
			if !ok {
				return fmt.Errorf("dependency %s: expected bool, got %T", key, raw)
			}
			out.DefaultFeatures = Bool(b)
		}
		if out.Features, err = stringsField(v, "features"); err != nil {
			return err
		}
		if out.Optional, err = boolField(v, "optional"); err != nil {
			return err
		}
		if out.Workspace, err = boolField(v, "workspace"); err != nil {
			return err
		}
		*d = out
		return nil
	default:
		return fmt.Errorf("dependency: expected string or table, got %T", data)
	}
}

// UnmarshalTOML decodes a patch table.
func (p *Patch) UnmarshalTOML(data any) error {
	v, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("patch: expected table, got %T", data)
	}
	var out Patch
	var err error
	fields := map[string]*string{
		"version": &out.Version,
		"path":    &out.Path,
		"git":     &out.Git,
		"branch":  &out.Branch,
		"tag":     &out.Tag,
		"rev":     &out.Rev,
		"package": &out.Package,
	}
	for key, dst := range fields {
		if *dst, err = stringField(v, key); err != nil {
			return err
		}
	}
	*p = out
	return nil
}

func stringField(m map[string]any, key string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %T", key, raw)
	}
	return s, nil
}

func boolField(m map[string]any, key string) (bool, error) {
	raw, ok := m[key]
	if !ok {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("%s: expected bool, got %T", key, raw)
	}
	return b, nil
}

func stringsField(m map[string]any, key string) ([]string, error) {
	raw, ok := m[key]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected array, got %T", key, raw)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s: expected string items, got %T", key, item)
		}
		out = append(out, s)
	}
	return out, nil
}
