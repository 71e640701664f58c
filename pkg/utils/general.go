package utils

// PanicIfNeeded panics with the given error so middleware.Recovery can turn
// it into a ResponseData.
func PanicIfNeeded(err any) {
	if err != nil {
		panic(err)
	}
}
