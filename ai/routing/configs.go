package routing

// SystemDefaultDomain is the hard fallback when neither a rule target nor a
// tenant default resolves a domain.
const SystemDefaultDomain = "general"

// DefaultKeywordConfigs returns the stock per-domain keyword tables. They are
// compiled and validated once at startup and then immutable; tenant-specific
// tuning is out of scope for the engine.
func DefaultKeywordConfigs() []*DomainKeywordConfig {
	return []*DomainKeywordConfig{
		{
			Domain:            "ecommerce",
			PrimaryKeywords:   []string{"precio", "comprar", "producto", "stock", "pedido", "carrito", "envío"},
			SecondaryKeywords: []string{"oferta", "catálogo", "pagar", "cuesta", "talle", "devolución"},
			ExclusionKeywords: []string{"crédito hipotecario"},
			Patterns: []string{
				`cu[aá]nto (cuesta|vale|sale)`,
				`tienen .+ en stock`,
				`quiero comprar`,
			},
			Priority: 10,
		},
		{
			Domain:            "credit",
			PrimaryKeywords:   []string{"crédito", "préstamo", "cuota", "financiación", "deuda", "refinanciar"},
			SecondaryKeywords: []string{"interés", "tasa", "saldo", "vencimiento", "mora"},
			ExclusionKeywords: []string{"tarjeta de regalo"},
			Patterns: []string{
				`cu[aá]ntas cuotas`,
				`(pedir|sacar) un pr[eé]stamo`,
			},
			Priority: 20,
		},
		{
			Domain:            "healthcare",
			PrimaryKeywords:   []string{"turno", "médico", "doctor", "consulta", "obra social"},
			SecondaryKeywords: []string{"hospital", "clínica", "receta", "estudio", "guardia"},
			ExclusionKeywords: []string{"veterinaria"},
			Patterns: []string{
				`sacar (un )?turno`,
				`cancelar (el |mi )?turno`,
			},
			Priority: 30,
		},
		{
			Domain:            "erp_support",
			PrimaryKeywords:   []string{"sistema", "error", "soporte", "licencia", "factura electrónica"},
			SecondaryKeywords: []string{"usuario", "contraseña", "módulo", "actualización", "backup"},
			Patterns: []string{
				`no (puedo|funciona|anda)`,
				`se (cay[oó]|colg[oó]) el sistema`,
			},
			Priority: 5,
		},
	}
}

// DefaultDomainDescriptions returns the classifier-facing descriptions for
// the stock domains.
func DefaultDomainDescriptions() []*DomainDescription {
	return []*DomainDescription{
		{
			Domain:       "ecommerce",
			Description:  "Product catalog, prices, orders, shipping and purchases.",
			Examples:     []string{"¿cuánto cuesta el producto X?", "quiero comprar dos unidades"},
			Capabilities: []string{"product search", "price quotes", "order status"},
		},
		{
			Domain:       "credit",
			Description:  "Loans, installments, financing, balances and debt.",
			Examples:     []string{"¿en cuántas cuotas puedo pagar?", "quiero refinanciar mi deuda"},
			Capabilities: []string{"loan simulation", "installment plans", "balance inquiries"},
		},
		{
			Domain:       "healthcare",
			Description:  "Medical appointments, doctors, prescriptions and coverage.",
			Examples:     []string{"necesito sacar un turno con el cardiólogo", "¿aceptan mi obra social?"},
			Capabilities: []string{"appointment booking", "coverage checks"},
		},
		{
			Domain:       "erp_support",
			Description:  "ERP system support: errors, licensing, users and invoicing modules.",
			Examples:     []string{"el sistema no me deja facturar", "necesito resetear mi contraseña"},
			Capabilities: []string{"incident triage", "license management"},
		},
	}
}
