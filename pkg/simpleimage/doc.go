// Package simpleimage stores user images in object storage and hands out
// signed transform URLs for them.
//
// Uploaded images are written to a BlobStore under a generated object key and
// recorded in a Repository. Every rendered image URL goes through an
// imagor.Signer, so browsers only ever see URLs the image server will verify.
//
// Example:
//
//	svc, err := simpleimage.New(
//	    simpleimage.WithRepository(memoryrepo.New()),
//	    simpleimage.WithBlobStore("memory", memorystorage.New()),
//	    simpleimage.WithSigner(imagor.New(imagor.WithImageHost("https://img.example.com"))),
//	)
//	img, err := svc.UploadImage(ctx, simpleimage.UploadImageRequest{
//	    OwnerID:     userID,
//	    Purpose:     simpleimage.PurposeAvatar,
//	    FileName:    "me.jpg",
//	    ContentType: "image/jpeg",
//	    Size:        size,
//	    Reader:      file,
//	})
//	url, err := svc.ImageURL(img.ObjectKey, "avatar")
package simpleimage
