package products

func stringPointer(value string) *string {
	return &value
}

func intPointer(value int) *int {
	return &value
}
