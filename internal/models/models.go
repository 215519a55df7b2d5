package models

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&Organization{},
		&OrganizationSettings{},
		&OrganizationAddress{},
		&TeamMember{},
		&Invite{},
		&Client{},
		&Task{},
		&TaskAssignment{},
		&Invoice{},
		&InvoiceItem{},
		&ChatRoom{},
		&ChatMessage{},
	}
}
