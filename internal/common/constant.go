package common

// AccessTokenHeaderName is the cookie name used to carry the access token
// when the Authorization header is absent.
const AccessTokenHeaderName = "access_token"

// DownloadCountTrailer is the HTTP trailer carrying the counter value after a
// successful download.
const DownloadCountTrailer = "X-Download-Count"

// PDFContentType is the only MIME type accepted by the upload route.
const PDFContentType = "application/pdf"
