package console

import "github.com/jrsteele09/farma-console/users"

// SidebarItem is one entry of the navigation menu. Items with children are
// collapsible groups and have no route of their own.
type SidebarItem struct {
	Label    string
	Route    string
	Children []SidebarItem
}

var sidebar = []SidebarItem{
	{Label: "Inicio", Route: RouteMain},
	{Label: "Atención", Route: RouteAtencion},
	{Label: "Ventas", Route: RouteVentas},
	{Label: "Compras", Route: RouteCompras},
	{Label: "Gestión", Children: []SidebarItem{
		{Label: "Categorías", Route: RouteGestionCategorias},
		{Label: "Clientes", Route: RouteGestionClientes},
		{Label: "Compras", Route: RouteGestionCompras},
		{Label: "Detalle de compras", Route: RouteGestionDetalleCompras},
		{Label: "Detalle de ventas", Route: RouteGestionDetalleVentas},
		{Label: "Empleados", Route: RouteGestionEmpleados},
		{Label: "Productos", Route: RouteGestionProductos},
		{Label: "Proveedores", Route: RouteGestionProveedores},
		{Label: "Ventas", Route: RouteGestionVentas},
	}},
}

// Sidebar returns the menu the user may see. It is empty for a nil user.
func Sidebar(user *users.User) []SidebarItem {
	if user == nil {
		return nil
	}
	return filterItems(sidebar, user)
}

func filterItems(items []SidebarItem, user *users.User) []SidebarItem {
	var visible []SidebarItem
	for _, item := range items {
		if item.Children != nil {
			children := filterItems(item.Children, user)
			if len(children) == 0 {
				continue
			}
			item.Children = children
		} else if role := RequiredRole(item.Route); role != users.RoleNone && !user.HasRole(role) {
			continue
		}
		visible = append(visible, item)
	}
	return visible
}
