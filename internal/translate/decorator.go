package translate

import "context"

// Decorator resolves a message's translated content through the cache, going
// upstream only on a miss.
type Decorator struct {
	translator Translator
	cache      Cache
}

func NewDecorator(translator Translator, cache Cache) *Decorator {
	return &Decorator{translator: translator, cache: cache}
}

// Decorate returns content in the viewer's language. When the message is
// already in that language the content comes back unchanged. On upstream
// failure the original content is returned along with the error, so callers
// can still display something.
func (d *Decorator) Decorate(ctx context.Context, content, sourceLang, viewerLang string) (string, error) {
	if sourceLang == viewerLang || content == "" {
		return content, nil
	}

	if translated, ok := d.cache.Get(ctx, content, viewerLang); ok {
		return translated, nil
	}

	translated, err := d.translator.Translate(ctx, content, sourceLang, viewerLang)
	if err != nil {
		return content, err
	}

	d.cache.Set(ctx, content, viewerLang, translated)
	return translated, nil
}
