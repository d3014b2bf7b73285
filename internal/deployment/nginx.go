package deployment

import (
	"strings"
	"text/template"
)

var nginxTemplate = template.Must(template.New("nginx").Parse(`# Chevereto NGINX generated rules for {{.RootURL}}

# Context limits
client_max_body_size 20M;

# Disable access to sensitive files
location ~* {{.RelPath}}(app|content|lib)/.*\.(po|php|lock|sql)$ {
  deny all;
}

# Image not found replacement
location ~ \.(jpe?g|png|gif|webp)$ {
    log_not_found off;
    error_page 404 {{.RelPath}}content/images/system/default/404.gif;
}

# CORS header (avoids font rendering issues)
location ~* {{.RelPath}}.*\.(ttf|ttc|otf|eot|woff|woff2|font.css|css|js)$ {
  add_header Access-Control-Allow-Origin "*";
}

# Pretty URLs
location {{.RelPath}} {
  index index.php;
  try_files $uri $uri/ /index.php$is_args$query_string;
}

# END Chevereto NGINX rules
`))

// NginxRules renders the server block rules for the deployment path.
func NginxRules(rt Runtime) string {
	var b strings.Builder
	// The template only reads two string fields; Execute cannot fail.
	_ = nginxTemplate.Execute(&b, rt)
	return b.String()
}
