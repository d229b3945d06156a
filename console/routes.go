package console

import (
	"strings"

	"github.com/jrsteele09/farma-console/users"
)

// Route path constants
const (
	RouteLogin = "/login"

	RouteDashboard = "/dashboard"
	RouteMain      = "/dashboard/main"
	RouteAtencion  = "/dashboard/atencion"
	RouteVentas    = "/dashboard/ventas"
	RouteCompras   = "/dashboard/compras"

	RouteGestion               = "/dashboard/gestion"
	RouteGestionCategorias     = "/dashboard/gestion/categorias"
	RouteGestionClientes       = "/dashboard/gestion/clientes"
	RouteGestionCompras        = "/dashboard/gestion/compras"
	RouteGestionDetalleCompras = "/dashboard/gestion/detalle-compras"
	RouteGestionDetalleVentas  = "/dashboard/gestion/detalle-ventas"
	RouteGestionEmpleados      = "/dashboard/gestion/empleados"
	RouteGestionProductos      = "/dashboard/gestion/productos"
	RouteGestionProveedores    = "/dashboard/gestion/proveedores"
	RouteGestionVentas         = "/dashboard/gestion/ventas"
)

// Routes lists every displayable route in sidebar order
var Routes = []string{
	RouteLogin,
	RouteMain,
	RouteAtencion,
	RouteVentas,
	RouteCompras,
	RouteGestionCategorias,
	RouteGestionClientes,
	RouteGestionCompras,
	RouteGestionDetalleCompras,
	RouteGestionDetalleVentas,
	RouteGestionEmpleados,
	RouteGestionProductos,
	RouteGestionProveedores,
	RouteGestionVentas,
}

var (
	knownRoutes = func() map[string]bool {
		m := make(map[string]bool, len(Routes))
		for _, r := range Routes {
			m[r] = true
		}
		return m
	}()

	redirects = map[string]string{
		"/":            RouteLogin,
		RouteDashboard: RouteMain,
		RouteGestion:   RouteGestionCategorias,
	}

	roleRequirements = map[string]users.RoleType{
		RouteGestionEmpleados: users.RoleAdmin,
	}
)

// Resolve maps a requested path onto the route that gets displayed. Empty and
// unknown paths land on the login route.
func Resolve(path string) string {
	path = "/" + strings.Trim(strings.TrimSpace(path), "/")
	if target, ok := redirects[path]; ok {
		return target
	}
	if knownRoutes[path] {
		return path
	}
	return RouteLogin
}

// IsProtected reports whether route needs a logged-in session
func IsProtected(route string) bool {
	return route == RouteDashboard || strings.HasPrefix(route, RouteDashboard+"/")
}

// RequiredRole returns the role a route needs on top of a session, RoleNone if any session will do
func RequiredRole(route string) users.RoleType {
	return roleRequirements[route]
}
