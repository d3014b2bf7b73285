package cpanel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerBlock = `# php -- BEGIN cPanel-generated handler, do not edit
# Set the “ea-php74” package as the default “PHP” programming language.
<IfModule mime_module>
  AddHandler application/x-httpd-ea-php74 .php .php7 .phtml
</IfModule>
# php -- END cPanel-generated handler, do not edit`

func TestHtaccessHandlers(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	body := "RewriteEngine On\n\n" + handlerBlock + "\n\n# trailing\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".htaccess"), []byte(body), 0o600))

	got, err := HtaccessHandlers(dir)
	require.NoError(t, err)
	assert.Equal(t, handlerBlock, got)
}

func TestHtaccessHandlers_Missing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := HtaccessHandlers(dir)
	assert.ErrorIs(t, err, ErrNoHandlers)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".htaccess"), []byte("RewriteEngine On\n"), 0o600))
	_, err = HtaccessHandlers(dir)
	assert.ErrorIs(t, err, ErrNoHandlers)
}

func TestExtractHandlers_Unterminated(t *testing.T) {
	t.Parallel()
	_, ok := ExtractHandlers("# php -- BEGIN cPanel-generated handler, do not edit\nAddHandler x .php\n")
	assert.False(t, ok)
}
