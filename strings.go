package fastbody

var (
	strContentTypeText      = []byte("text/plain;charset=UTF-8")
	strContentTypeForm      = []byte("application/x-www-form-urlencoded;charset=UTF-8")
	strContentTypeMultipart = []byte("multipart/form-data;boundary=")
)
