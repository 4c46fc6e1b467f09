package domain

// Catálogo de listados de la aplicación.

var defaultFieldNames = FieldNameMap{
	"proveedor":         "__nombre_fantasia_pila",
	"cliente_proyecto":  "__cliente_proyecto",
	"imputacion":        "__imputacion",
	"unidad_de_negocio": "__unidad_de_negocio",
	"caja":              "__caja",
}

var estadoOptions = []Option{
	{Value: "1", Label: "Cargado"},
	{Value: "2", Label: "Aprobado"},
	{Value: "3", Label: "Completo"},
	{Value: "4", Label: "Excedido"},
	{Value: "5", Label: "Ampliado"},
	{Value: "99", Label: "Rechazado"},
}

func cols(keys []string, labels []string) []Column {
	out := make([]Column, len(keys))
	for i, k := range keys {
		out[i] = Column{Key: k, Label: labels[i]}
	}
	return out
}

func text(id, label string) FilterField {
	return FilterField{ID: id, Label: label, Type: FieldText}
}

func number(id, label string) FilterField {
	return FilterField{ID: id, Label: label, Type: FieldNumber}
}

func date(id, label string) FilterField {
	return FilterField{ID: id, Label: label, Type: FieldDate}
}

// markCargado deja el presupuesto recién creado en estado inicial.
func markCargado(r Record) Record {
	out := r.Clone()
	out["estado"] = "Cargado"
	return out
}

// DefaultRegistry construye el registro con los doce listados.
func DefaultRegistry() *Registry {
	return NewRegistry(defaultFieldNames,
		ResourceConfig{
			Name: "presupuestos",
			Columns: cols(
				[]string{"fecha", "proveedor", "cliente_proyecto", "observacion", "monto", "saldo", "estado", "aprobado"},
				[]string{"Fecha", "Proveedor", "Cliente/Proyecto", "Observación", "Monto", "Saldo", "Estado", "Aprobado"},
			),
			Fields: []FilterField{
				text("proveedor", "Proveedor"),
				{ID: "estado", Label: "Estado", Type: FieldSelect, Options: estadoOptions},
				text("cliente_proyecto", "Cliente/Proyecto"),
				text("observacion", "Observación"),
				number("monto", "Monto"),
				number("saldo", "Saldo"),
				date("fecha", "Fecha"),
			},
			SearchFields: []string{"fecha", "proveedor__nombre_fantasia_pila", "cliente_proyecto__cliente_proyecto", "observacion"},
			OnCreate:     markCargado,
		},
		ResourceConfig{
			Name: "registros",
			Columns: cols(
				[]string{"caja", "tipo_reg", "fecha_reg", "unidad_de_negocio", "cliente_proyecto", "proveedor", "imputacion", "observacion", "presupuesto", "monto_gasto_ingreso_neto", "iva_gasto_ingreso", "total_gasto_ingreso", "monto_op_rec", "total_gasto_ingreso_usd", "monto_op_rec_usd", "saldo_acumulado"},
				[]string{"Caja", "Tipo reg.", "Fecha reg.", "Unidad de negocio", "Cliente/Proyecto", "Contrapartida", "Imputación", "Observación", "Presupuesto", "Neto", "IVA", "Total Gasto/Ingreso", "Monto OP/REC", "Total Gasto/Ingreso USD", "Monto OP/REC USD", "Saldo caja"},
			),
			Fields: []FilterField{
				text("caja", "Caja"),
				text("tipo_reg", "Tipo reg."),
				date("fecha_reg", "Fecha reg."),
				text("unidad_de_negocio", "Unidad de negocio"),
				text("cliente_proyecto", "Cliente/Proyecto"),
				text("proveedor", "Proveedor"),
				text("imputacion", "Imputación"),
				text("observacion", "Observación"),
				number("monto_gasto_ingreso_neto", "Neto"),
				number("iva_gasto_ingreso", "IVA"),
				number("monto_op_rec", "Monto OP/REC"),
				number("saldo_caja", "Saldo caja"),
			},
			DefaultSort:    "fecha_reg",
			SentinelOffset: 25,
			SearchFields: []string{
				"fecha_reg", "proveedor__razon_social", "proveedor__nombre_fantasia_pila",
				"cliente_proyecto__cliente_proyecto", "observacion", "caja__caja",
				"imputacion__imputacion", "tipo_reg",
			},
		},
		ResourceConfig{
			Name: "documentos",
			Columns: cols(
				[]string{"tipo_documento", "fecha_documento", "proveedor", "receptor", "serie", "numero", "añomes_imputacion_gasto", "unidad_de_negocio", "cliente_proyecto", "imputacion", "concepto", "comentario", "moneda", "total"},
				[]string{"Tipo", "Fecha", "Proveedor", "Receptor", "Serie", "N°", "Mes devengado", "Unidad de negocio", "Cliente/Proyecto", "Imputación", "Concepto", "Comentario", "Moneda", "Total"},
			),
			Fields: []FilterField{
				text("proveedor", "Proveedor"),
				text("tipo_documento", "Tipo Documento"),
				date("fecha_documento", "Fecha Documento"),
				text("receptor", "Receptor"),
				text("serie", "Serie"),
				text("numero", "Número"),
				text("añomes_imputacion_gasto", "Mes de devengado"),
				text("unidad_de_negocio", "Unidad de negocio"),
				text("cliente_proyecto", "Cliente/Proyecto"),
				text("imputacion", "Imputación"),
				text("concepto", "Concepto"),
				text("comentario", "Comentario"),
				number("neto", "Neto"),
				number("iva", "IVA"),
				text("moneda", "Moneda"),
				number("tipo_de_cambio", "Tipo de cambio"),
				number("total", "Total"),
			},
			DefaultSort: "fecha_documento",
			SearchFields: []string{
				"numero", "proveedor__razon_social", "proveedor__cnpj", "proveedor__nombre_fantasia_pila",
				"receptor__razon_social", "receptor__cnpj", "unidad_de_negocio__unidad_de_negocio",
				"cliente_proyecto__cliente_proyecto", "imputacion__imputacion", "concepto", "fecha_documento",
			},
		},
		ResourceConfig{
			Name: "cobranzas",
			Columns: cols(
				[]string{"caja", "tipo_reg", "fecha_reg", "unidad_de_negocio", "cliente_proyecto", "imputacion", "observacion", "monto_gasto_ingreso_neto", "iva_gasto_ingreso", "monto_op_rec"},
				[]string{"Caja", "Tipo", "Fecha", "Unidad de negocio", "Cliente/Proyecto", "Imputación", "Observación", "Neto", "IVA", "Monto OP/REC"},
			),
			Fields: []FilterField{
				text("caja", "Caja"),
				text("tipo_reg", "Tipo reg."),
				date("fecha_reg", "Fecha reg."),
				text("unidad_de_negocio", "Unidad de negocio"),
				text("cliente_proyecto", "Cliente/Proyecto"),
				text("imputacion", "Imputación"),
				text("observacion", "Observación"),
				number("monto_gasto_ingreso_neto", "Neto"),
				number("iva_gasto_ingreso", "IVA"),
				number("monto_op_rec", "Monto OP/REC"),
			},
			DefaultSort:  "fecha_reg",
			SearchFields: []string{"fecha_reg", "cliente_proyecto__cliente_proyecto", "observacion", "caja__caja"},
		},
		ResourceConfig{
			Name:    "dolar_mep",
			Columns: cols([]string{"fecha", "compra", "venta"}, []string{"Fecha", "Compra", "Venta"}),
			Fields: []FilterField{
				date("fecha", "Fecha"),
				number("compra", "Compra"),
				number("venta", "Venta"),
			},
			SearchFields: []string{"fecha"},
		},
		ResourceConfig{
			Name: "pagos",
			Columns: cols(
				[]string{"caja", "fecha_pago", "cliente_proyecto", "proveedor", "observacion", "monto"},
				[]string{"Caja", "Fecha", "Obra", "Proveedor", "Concepto", "Monto"},
			),
			Fields: []FilterField{
				text("caja", "Caja"),
				date("fecha_reg", "Fecha reg."),
				text("proveedor", "Proveedor"),
				text("imputacion", "Imputación"),
				text("observacion", "Observación"),
				number("monto_op_rec", "Monto OP/REC"),
				text("moneda_display", "Moneda"),
			},
			DefaultSort:  "fecha_pago",
			SearchFields: []string{"proveedor__razon_social", "proveedor__nombre_fantasia_pila", "proveedor__cnpj", "fecha_pago", "cliente_proyecto__cliente_proyecto"},
		},
		ResourceConfig{
			Name: "receptores",
			Columns: cols(
				[]string{"razon_social", "nombre_fantasia_pila", "cnpj"},
				[]string{"Razón Social", "Nombre Fantasía", "CNPJ"},
			),
			Fields: []FilterField{
				text("razon_social", "Razón Social"),
				text("nombre_fantasia_pila", "Nombre Fantasía"),
				text("cnpj", "CNPJ"),
			},
			SearchFields: []string{"razon_social", "nombre_fantasia_pila", "cnpj"},
		},
		ResourceConfig{
			Name: "proveedores",
			Columns: cols(
				[]string{"razon_social", "nombre_fantasia_pila", "cnpj"},
				[]string{"Razón Social", "Nombre Fantasía", "CNPJ"},
			),
			Fields: []FilterField{
				text("razon_social", "Razón Social"),
				text("nombre_fantasia_pila", "Nombre Fantasía"),
				text("cnpj", "CNPJ"),
			},
			SearchFields: []string{"razon_social", "nombre_fantasia_pila", "cnpj"},
		},
		ResourceConfig{
			Name:         "clientes_proyectos",
			Columns:      cols([]string{"cliente_proyecto"}, []string{"Cliente/Proyecto"}),
			Fields:       []FilterField{text("cliente_proyecto", "Cliente/Proyecto")},
			SearchFields: []string{"cliente_proyecto"},
		},
		ResourceConfig{
			Name: "plantillas_registros",
			Columns: cols(
				[]string{"nombre", "tipo_reg", "unidad_de_negocio", "cliente_proyecto", "proveedor", "imputacion", "observacion"},
				[]string{"Nombre", "Tipo reg.", "Unidad de negocio", "Cliente/Proyecto", "Proveedor", "Imputación", "Observación"},
			),
			Fields: []FilterField{
				text("nombre", "Nombre"),
				text("tipo_reg", "Tipo reg."),
				text("unidad_de_negocio", "Unidad de negocio"),
				text("cliente_proyecto", "Cliente/Proyecto"),
				text("imputacion", "Imputación"),
				text("observacion", "Observación"),
			},
			SearchFields: []string{"nombre", "tipo_reg", "unidad_de_negocio__unidad_de_negocio", "cliente_proyecto__cliente_proyecto", "imputacion__imputacion", "observacion"},
		},
		// desacopios y acopios se listan sin panel de filtros.
		ResourceConfig{
			Name: "desacopios",
			Columns: cols(
				[]string{"fecha_entrega", "remito", "nro_pedido", "arquitecto", "codigo", "nombre", "cantidad", "unitario", "alicuota", "obra", "conciliado", "acopio"},
				[]string{"Fecha entrega", "Remito", "N° Pedido", "Arquitecto", "Código", "Artículo", "Cantidad", "Precio unitario", "Alícuota", "Cliente/Proyecto", "Conciliado", "Acopio"},
			),
			DefaultSort:  "fecha_entrega",
			SearchFields: []string{"remito", "nro_pedido", "arquitecto", "codigo", "nombre"},
		},
		ResourceConfig{
			Name: "acopios",
			Columns: cols(
				[]string{"fecha", "acopiante_nombre", "nombre", "monto", "iva", "total", "saldo"},
				[]string{"Fecha", "Acopiante", "Nombre", "Neto", "IVA", "Total", "Saldo"},
			),
			DefaultSort:  "fecha",
			SearchFields: []string{"acopiante_nombre", "nombre"},
		},
	)
}
