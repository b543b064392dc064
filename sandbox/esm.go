package sandbox

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/evanw/esbuild/pkg/api"
)

// toCommonJS compiles the ES module syntax in src to CommonJS so goja can
// run it as a plain script. Source that never imports or exports comes back
// unchanged in meaning. The output carries an inline source map, so goja
// reports positions in the text the user wrote.
func toCommonJS(name, src string) (string, error) {
	res := api.Transform(src, api.TransformOptions{
		Loader:     api.LoaderJS,
		Format:     api.FormatCommonJS,
		Target:     api.ES2017,
		Sourcefile: name,
		Sourcemap:  api.SourceMapInline,
		LogLevel:   api.LogLevelSilent,
	})
	if len(res.Errors) > 0 {
		errs := make([]error, 0, len(res.Errors))
		for _, msg := range res.Errors {
			errs = append(errs, transformError(msg))
		}
		return "", errors.Join(errs...)
	}
	return string(res.Code), nil
}

func transformError(msg api.Message) error {
	if loc := msg.Location; loc != nil {
		return fmt.Errorf("%s:%d:%d: %s", loc.File, loc.Line, loc.Column+1, msg.Text)
	}
	return errors.New(msg.Text)
}

// programName is the file name goja records for a unit. goja resolves the
// inline source map against it as a URL, so names that do not parse as one
// are escaped.
func programName(name string) string {
	if _, err := url.Parse(name); err != nil {
		return url.PathEscape(name)
	}
	return name
}
